package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/ds124wfegd/emergency-ops/internal/database/postgres"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// Realtime event names of the messaging channel.
const (
	EventNewMessage  = "new-message"
	EventMessageSent = "message-sent"
	EventMessageRead = "message-read"
)

// SendMessageInput is the routed form of one outgoing message.
type SendMessageInput struct {
	Content  string
	Type     entity.MessageType
	Priority entity.MessagePriority
	Spec     entity.RecipientSpec
}

// BroadcastMessageInput feeds the one-to-everyone shortcut reserved
// for admins and operators.
type BroadcastMessageInput struct {
	Content  string
	Priority entity.MessagePriority
	Spec     entity.RecipientSpec
}

type MessageService struct {
	repo repository.MessageRepository
	bc   Broadcaster
	now  func() time.Time
}

func NewMessageService(repo repository.MessageRepository, bc Broadcaster) *MessageService {
	return &MessageService{
		repo: repo,
		bc:   bc,
		now:  time.Now,
	}
}

// Send validates, persists and routes one message to the rooms its
// recipient spec selects. The sender gets a message-sent ack on their
// private room.
func (s *MessageService) Send(ctx context.Context, input *SendMessageInput, actor Actor) (*entity.Message, error) {
	if input.Content == "" {
		return nil, entity.ErrEmptyContent
	}
	if err := input.Spec.Validate(); err != nil {
		return nil, err
	}

	msg := s.newMessage(input.Content, input.Type, input.Priority, input.Spec, actor)
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	s.route(ctx, msg, input.Spec, actor)
	return msg, nil
}

// Broadcast sends a high-visibility message to a whole audience.
// Only admins and operators may broadcast.
func (s *MessageService) Broadcast(ctx context.Context, input *BroadcastMessageInput, actor Actor) (*entity.Message, error) {
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleOperator {
		return nil, entity.ErrUnauthorized
	}
	if input.Content == "" {
		return nil, entity.ErrEmptyContent
	}

	spec := input.Spec
	if spec.Kind == "" {
		spec = entity.SpecForAll()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityHigh
	}

	msg := s.newMessage(input.Content, entity.MessageBroadcast, priority, spec, actor)
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist broadcast message: %w", err)
	}

	s.route(ctx, msg, spec, actor)
	return msg, nil
}

// MarkRead records a read receipt and notifies the sender's private
// room. Re-reads keep the first receipt and still return the message.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) (*entity.Message, error) {
	if err := s.repo.MarkRead(ctx, messageID, userID); err != nil {
		return nil, err
	}
	msg, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if msg.SenderID != "" && msg.SenderID != userID {
		receipt := map[string]interface{}{
			"message_id": msg.ID,
			"read_by":    userID,
			"read_at":    s.now(),
		}
		if err := s.bc.BroadcastToUser(ctx, msg.SenderID, EventMessageRead, receipt); err != nil {
			logrus.WithError(err).WithField("message_id", msg.ID).
				Warn("Failed to notify sender of read receipt")
		}
	}
	return msg, nil
}

func (s *MessageService) ForUser(ctx context.Context, user *entity.User, filter entity.MessageFilter) ([]*entity.Message, int64, error) {
	messages, err := s.repo.GetForUser(ctx, user, filter)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.UnreadCount(ctx, user)
	if err != nil {
		return nil, 0, err
	}
	return messages, unread, nil
}

func (s *MessageService) Stats(ctx context.Context, user *entity.User) (*entity.MessageStats, error) {
	return s.repo.Stats(ctx, user)
}

func (s *MessageService) route(ctx context.Context, msg *entity.Message, spec entity.RecipientSpec, actor Actor) {
	if err := s.bc.Broadcast(ctx, spec, EventNewMessage, msg); err != nil {
		logrus.WithError(err).WithField("message_id", msg.ID).
			Error("Failed to route message")
	}
	if actor.ID != "" {
		if err := s.bc.BroadcastToUser(ctx, actor.ID, EventMessageSent, msg); err != nil {
			logrus.WithError(err).WithField("message_id", msg.ID).
				Warn("Failed to ack message to sender")
		}
	}

	logrus.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"type":       msg.Type,
		"priority":   msg.Priority,
		"recipients": msg.Recipients,
	}).Info("Message routed")
}

func (s *MessageService) newMessage(content string, typ entity.MessageType, priority entity.MessagePriority, spec entity.RecipientSpec, actor Actor) *entity.Message {
	if typ == "" {
		typ = entity.MessageTeam
	}
	if priority == "" {
		priority = entity.PriorityNormal
	}

	return &entity.Message{
		ID:          uuid.New().String(),
		Content:     content,
		Type:        typ,
		Priority:    priority,
		SenderID:    actor.ID,
		SenderName:  actor.Name,
		SenderRole:  actor.Role,
		Recipients:  spec.Wire(),
		TargetZone:  spec.Zone,
		SpecificIDs: spec.IDs,
		IsEmergency: priority == entity.PriorityCritical,
		ReadBy:      []entity.ReadReceipt{},
		CreatedAt:   s.now(),
	}
}
