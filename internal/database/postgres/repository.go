package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// UserRepository is the external user directory. Read-only from the
// point of view of the routing core.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetVerified(ctx context.Context) ([]*entity.User, error)
	GetVerifiedByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	GetVerifiedByZone(ctx context.Context, zone string) ([]*entity.User, error)
	GetVerifiedByIDs(ctx context.Context, ids []string) ([]*entity.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	Update(ctx context.Context, notification *entity.Notification) error
	UpdateStatus(ctx context.Context, id string, status entity.NotificationStatus) error
	ClaimForDispatch(ctx context.Context, id string) (bool, error)
	MarkRead(ctx context.Context, id, userID string) error
	History(ctx context.Context, filter entity.HistoryFilter) ([]*entity.Notification, int64, error)
	GetUnreadForUser(ctx context.Context, userID string, role entity.Role, zone string) ([]*entity.Notification, error)
	GetScheduled(ctx context.Context, after time.Time) ([]*entity.Notification, error)
	GetOverdueScheduled(ctx context.Context, before time.Time) ([]*entity.Notification, error)
	Stats(ctx context.Context, since time.Time) (*entity.NotificationStats, error)
}

// Repository bundles the per-table repositories behind one handle.
type Repository struct {
	Users         UserRepository
	Notifications NotificationRepository
	Messages      MessageRepository
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:         NewUserRepository(db),
		Notifications: NewNotificationRepository(db),
		Messages:      NewMessageRepository(db),
	}
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	MarkRead(ctx context.Context, id, userID string) error
	GetForUser(ctx context.Context, user *entity.User, filter entity.MessageFilter) ([]*entity.Message, error)
	UnreadCount(ctx context.Context, user *entity.User) (int64, error)
	Stats(ctx context.Context, user *entity.User) (*entity.MessageStats, error)
}
