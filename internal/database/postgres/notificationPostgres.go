package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `
	id, type, title, message, severity, recipients, COALESCE(target_zone, ''),
	specific_recipients, send_in_app, send_email, send_sms,
	COALESCE(sent_by, ''), COALESCE(sent_by_role, ''), status,
	stats_total, stats_delivered, stats_failed, stats_pending,
	metadata, read_by, scheduled_for, sent_at, completed_at, created_at, updated_at`

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	specific, err := json.Marshal(n.SpecificIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal specific recipients: %w", err)
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, type, title, message, severity, recipients, target_zone,
			specific_recipients, send_in_app, send_email, send_sms,
			sent_by, sent_by_role, status,
			stats_total, stats_delivered, stats_failed, stats_pending,
			metadata, read_by, scheduled_for, sent_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11,
			NULLIF($12, ''), NULLIF($13, ''), $14, $15, $16, $17, $18, $19, '[]',
			$20, $21, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		n.ID, n.Type, n.Title, n.Message, n.Severity, n.Recipients, n.TargetZone,
		specific, n.Channels.InApp, n.Channels.Email, n.Channels.SMS,
		n.SentBy, string(n.SentByRole), n.Status,
		n.DeliveryStats.Total, n.DeliveryStats.Delivered, n.DeliveryStats.Failed, n.DeliveryStats.Pending,
		metadata, n.ScheduledFor, n.SentAt,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := r.scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *entity.Notification) error {
	readBy, err := json.Marshal(n.ReadBy)
	if err != nil {
		return fmt.Errorf("failed to marshal read receipts: %w", err)
	}

	query := `
		UPDATE notifications SET
			status = $2,
			stats_total = $3, stats_delivered = $4, stats_failed = $5, stats_pending = $6,
			read_by = $7, sent_at = $8, completed_at = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.Status,
		n.DeliveryStats.Total, n.DeliveryStats.Delivered, n.DeliveryStats.Failed, n.DeliveryStats.Pending,
		readBy, n.SentAt, n.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return requireRow(result, entity.ErrNotificationNotFound)
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id string, status entity.NotificationStatus) error {
	query := `UPDATE notifications SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return requireRow(result, entity.ErrNotificationNotFound)
}

// ClaimForDispatch flips a pending notification to sending. The status
// guard makes the claim exclusive: of several concurrent dispatchers
// (broker consumer, overdue sweep), exactly one sees true. A cancel
// that landed first also makes the claim fail.
func (r *notificationRepository) ClaimForDispatch(ctx context.Context, id string) (bool, error) {
	query := `UPDATE notifications SET status = 'sending', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification for dispatch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkRead appends a read receipt unless one already exists for the
// user. Idempotent by construction: the jsonb containment guard makes
// the second call a no-op.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications
		SET read_by = read_by || jsonb_build_array(jsonb_build_object('user', $2::text, 'read_at', now())),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		  AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $2::text))
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either already read (fine) or missing. Distinguish the two.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check notification existence: %w", err)
		}
		if !exists {
			return entity.ErrNotificationNotFound
		}
	}
	return nil
}

func (r *notificationRepository) History(ctx context.Context, filter entity.HistoryFilter) ([]*entity.Notification, int64, error) {
	where := `WHERE (scheduled_for IS NULL OR status <> 'pending')`
	args := []interface{}{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.Type != "" {
		addArg("type = $%d", filter.Type)
	}
	if filter.Severity != "" {
		addArg("severity = $%d", filter.Severity)
	}
	if filter.Recipients != "" {
		addArg("recipients = $%d", filter.Recipients)
	}
	if filter.DateFrom != nil {
		addArg("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addArg("created_at <= $%d", *filter.DateTo)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM notifications ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications ` + where +
		` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) +
		` OFFSET ` + strconv.Itoa((page-1)*limit)

	notifications, err := r.queryNotifications(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) GetUnreadForUser(ctx context.Context, userID string, role entity.Role, zone string) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE send_in_app = TRUE
		  AND status <> 'pending' AND status <> 'cancelled'
		  AND (recipients = 'all'
		       OR recipients = $2
		       OR (recipients = 'zone' AND target_zone = NULLIF($3, ''))
		       OR (recipients = 'specific' AND specific_recipients @> to_jsonb($1::text)))
		  AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $1::text))
		ORDER BY created_at DESC
		LIMIT 50`
	return r.queryNotifications(ctx, query, userID, string(role)+"s", zone)
}

func (r *notificationRepository) GetScheduled(ctx context.Context, after time.Time) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE status = 'pending' AND scheduled_for IS NOT NULL AND scheduled_for > $1
		ORDER BY scheduled_for ASC`
	return r.queryNotifications(ctx, query, after)
}

func (r *notificationRepository) GetOverdueScheduled(ctx context.Context, before time.Time) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE status = 'pending' AND scheduled_for IS NOT NULL AND scheduled_for <= $1
		ORDER BY scheduled_for ASC`
	return r.queryNotifications(ctx, query, before)
}

func (r *notificationRepository) Stats(ctx context.Context, since time.Time) (*entity.NotificationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(stats_delivered), 0),
			COALESCE(SUM(stats_failed), 0),
			COUNT(*) FILTER (WHERE type = 'emergency' OR type = 'emergency_detection'),
			COUNT(*) FILTER (WHERE type = 'announcement'),
			COUNT(*) FILTER (WHERE type = 'test')
		FROM notifications
		WHERE created_at >= $1 AND status <> 'cancelled'
	`
	var stats entity.NotificationStats
	err := r.db.QueryRowContext(ctx, query, since).Scan(
		&stats.TotalSent, &stats.TotalDelivered, &stats.TotalFailed,
		&stats.EmergencyAlerts, &stats.Announcements, &stats.TestSends,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *notificationRepository) scanNotification(row rowScanner) (*entity.Notification, error) {
	var n entity.Notification
	var specific, metadata, readBy []byte

	err := row.Scan(
		&n.ID, &n.Type, &n.Title, &n.Message, &n.Severity, &n.Recipients, &n.TargetZone,
		&specific, &n.Channels.InApp, &n.Channels.Email, &n.Channels.SMS,
		&n.SentBy, &n.SentByRole, &n.Status,
		&n.DeliveryStats.Total, &n.DeliveryStats.Delivered, &n.DeliveryStats.Failed, &n.DeliveryStats.Pending,
		&metadata, &readBy, &n.ScheduledFor, &n.SentAt, &n.CompletedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(specific, &n.SpecificIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specific recipients: %w", err)
	}
	if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(readBy, &n.ReadBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal read receipts: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]*entity.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func requireRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
