package service

import (
	"context"
	"time"

	repository "github.com/ds124wfegd/emergency-ops/internal/database/postgres"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
	"github.com/ds124wfegd/emergency-ops/pkg/email"
)

// Actor identifies who triggered an operation. System dispatches use
// SystemActor instead of an authenticated user.
type Actor struct {
	ID   string
	Name string
	Role entity.Role
}

// RoleSystem marks dispatches originating from automated detection,
// not from an authenticated user.
const RoleSystem entity.Role = "system"

func SystemActor() Actor {
	return Actor{Name: "AI Detection System", Role: RoleSystem}
}

// Broadcaster pushes realtime events into the room fabric.
type Broadcaster interface {
	Broadcast(ctx context.Context, spec entity.RecipientSpec, event string, data interface{}) error
	BroadcastToUser(ctx context.Context, userID, event string, data interface{}) error
}

// DelayedQueue hands a payload to the broker for redelivery after the
// given delay. Used to wake scheduled notifications up on time.
type DelayedQueue interface {
	PublishWithDelay(ctx context.Context, body []byte, delay time.Duration) error
}

type Notifications interface {
	Dispatch(ctx context.Context, req *entity.NotificationRequest, actor Actor) (*entity.Notification, error)
	DispatchSystem(ctx context.Context, req *entity.NotificationRequest) (*entity.Notification, error)
	Schedule(ctx context.Context, req *entity.NotificationRequest, at time.Time, actor Actor) (*entity.Notification, error)
	DispatchScheduled(ctx context.Context, id string) error
	SweepOverdue(ctx context.Context) (int, error)
	Scheduled(ctx context.Context) ([]*entity.Notification, error)
	CancelScheduled(ctx context.Context, id string) (*entity.Notification, error)
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	History(ctx context.Context, filter entity.HistoryFilter) ([]*entity.Notification, int64, error)
	UnreadForUser(ctx context.Context, user *entity.User) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (*entity.Notification, error)
	Stats(ctx context.Context, since time.Time) (*entity.NotificationStats, error)
}

type Messages interface {
	Send(ctx context.Context, input *SendMessageInput, actor Actor) (*entity.Message, error)
	Broadcast(ctx context.Context, input *BroadcastMessageInput, actor Actor) (*entity.Message, error)
	MarkRead(ctx context.Context, messageID, userID string) (*entity.Message, error)
	ForUser(ctx context.Context, user *entity.User, filter entity.MessageFilter) ([]*entity.Message, int64, error)
	Stats(ctx context.Context, user *entity.User) (*entity.MessageStats, error)
}

type Service struct {
	Notifications
	Messages
	Resolver *RecipientResolver
}

func NewService(repos *repository.Repository, broadcaster Broadcaster, sender email.Sender, queue DelayedQueue) *Service {
	resolver := NewRecipientResolver(repos.Users)
	return &Service{
		Notifications: NewNotificationService(repos.Notifications, resolver, broadcaster, sender, queue),
		Messages:      NewMessageService(repos.Messages, broadcaster),
		Resolver:      resolver,
	}
}
