package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = `
	id, content, type, priority, sender_id, sender_name, sender_role,
	recipients, COALESCE(target_zone, ''), specific_recipients,
	is_emergency, read_by, created_at`

func (r *messageRepository) Create(ctx context.Context, m *entity.Message) error {
	specific, err := json.Marshal(m.SpecificIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal specific recipients: %w", err)
	}

	query := `
		INSERT INTO messages (
			id, content, type, priority, sender_id, sender_name, sender_role,
			recipients, target_zone, specific_recipients, is_emergency, read_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, '[]', CURRENT_TIMESTAMP)
		RETURNING created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		m.ID, m.Content, m.Type, m.Priority, m.SenderID, m.SenderName, m.SenderRole,
		m.Recipients, m.TargetZone, specific, m.IsEmergency,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := r.scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// MarkRead appends a read receipt unless the user already has one.
func (r *messageRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE messages
		SET read_by = read_by || jsonb_build_array(jsonb_build_object('user', $2::text, 'read_at', now()))
		WHERE id = $1
		  AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $2::text))
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM messages WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check message existence: %w", err)
		}
		if !exists {
			return entity.ErrMessageNotFound
		}
	}
	return nil
}

// visibilityClause matches messages addressed to the given user:
// sent by them, sent to everyone, to their role, to their zone, or to
// them explicitly. Placeholders: $1 user id, $2 role wire form, $3 zone.
const visibilityClause = `(
	sender_id = $1
	OR recipients = 'all'
	OR recipients = $2
	OR (recipients = 'zone' AND target_zone = NULLIF($3, ''))
	OR (recipients = 'specific' AND specific_recipients @> to_jsonb($1::text))
)`

func (r *messageRepository) GetForUser(ctx context.Context, user *entity.User, filter entity.MessageFilter) ([]*entity.Message, error) {
	where := `WHERE ` + visibilityClause
	args := []interface{}{user.ID, string(user.Role) + "s", user.AssignedZone}

	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + messageColumns + ` FROM messages ` + where +
		` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) +
		` OFFSET ` + strconv.Itoa((page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		m, err := r.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *messageRepository) UnreadCount(ctx context.Context, user *entity.User) (int64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE ` + visibilityClause + `
		AND sender_id <> $1
		AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $1::text))`

	var count int64
	err := r.db.QueryRowContext(ctx, query, user.ID, string(user.Role)+"s", user.AssignedZone).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func (r *messageRepository) Stats(ctx context.Context, user *entity.User) (*entity.MessageStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE sender_id = $1),
			COUNT(*) FILTER (WHERE sender_id <> $1 AND ` + visibilityClause + `),
			COUNT(*) FILTER (WHERE sender_id <> $1 AND ` + visibilityClause + `
				AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $1::text))),
			COUNT(*) FILTER (WHERE sender_id <> $1 AND ` + visibilityClause + `
				AND is_emergency = TRUE
				AND NOT read_by @> jsonb_build_array(jsonb_build_object('user', $1::text)))
		FROM messages
	`
	var stats entity.MessageStats
	err := r.db.QueryRowContext(ctx, query, user.ID, string(user.Role)+"s", user.AssignedZone).Scan(
		&stats.TotalSent, &stats.TotalReceived, &stats.UnreadCount, &stats.EmergencyCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get message stats: %w", err)
	}
	return &stats, nil
}

func (r *messageRepository) scanMessage(row rowScanner) (*entity.Message, error) {
	var m entity.Message
	var specific, readBy []byte

	err := row.Scan(
		&m.ID, &m.Content, &m.Type, &m.Priority, &m.SenderID, &m.SenderName, &m.SenderRole,
		&m.Recipients, &m.TargetZone, &specific, &m.IsEmergency, &readBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(specific, &m.SpecificIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specific recipients: %w", err)
	}
	if err := json.Unmarshal(readBy, &m.ReadBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal read receipts: %w", err)
	}
	return &m, nil
}
