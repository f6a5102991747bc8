package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/ds124wfegd/emergency-ops/internal/database/postgres"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
	"github.com/ds124wfegd/emergency-ops/pkg/email"
)

// Realtime event names pushed through the broadcaster.
const (
	EventNotification = "notification"
	EventPush         = "push-notification"
)

const defaultNotificationType = "general"

// scheduledTask is the broker payload that wakes a scheduled
// notification up at its due time.
type scheduledTask struct {
	NotificationID string `json:"notification_id"`
}

type NotificationService struct {
	repo     repository.NotificationRepository
	resolver *RecipientResolver
	bc       Broadcaster
	mail     email.Sender
	queue    DelayedQueue
	now      func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository, resolver *RecipientResolver, bc Broadcaster, mail email.Sender, queue DelayedQueue) *NotificationService {
	return &NotificationService{
		repo:     repo,
		resolver: resolver,
		bc:       bc,
		mail:     mail,
		queue:    queue,
		now:      time.Now,
	}
}

// Dispatch resolves the audience, persists the notification and fans
// it out over the enabled channels. Resolution failures abort before
// anything is persisted.
func (s *NotificationService) Dispatch(ctx context.Context, req *entity.NotificationRequest, actor Actor) (*entity.Notification, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	recipients, err := s.resolver.Resolve(ctx, req.Spec)
	if err != nil {
		return nil, err
	}

	now := s.now()
	n := s.newNotification(req, actor, now)
	n.Status = entity.StatusSending
	n.SentAt = &now
	n.DeliveryStats = entity.DeliveryStats{Total: len(recipients), Pending: len(recipients)}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	s.deliver(ctx, n, recipients, actor.Name)
	return n, nil
}

// DispatchSystem is the entry point for automated detection alerts.
func (s *NotificationService) DispatchSystem(ctx context.Context, req *entity.NotificationRequest) (*entity.Notification, error) {
	return s.Dispatch(ctx, req, SystemActor())
}

// Schedule validates and persists a notification for later dispatch.
// The audience is resolved at dispatch time, not at schedule time, so
// users verified in between are included.
func (s *NotificationService) Schedule(ctx context.Context, req *entity.NotificationRequest, at time.Time, actor Actor) (*entity.Notification, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	if !at.After(now) {
		return nil, entity.ErrScheduleTimePast
	}

	n := s.newNotification(req, actor, now)
	n.Status = entity.StatusPending
	n.ScheduledFor = &at

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist scheduled notification: %w", err)
	}

	body, _ := json.Marshal(scheduledTask{NotificationID: n.ID})
	if err := s.queue.PublishWithDelay(ctx, body, at.Sub(now)); err != nil {
		// The overdue sweep picks the row up if the broker task is lost.
		logrus.WithError(err).WithField("notification_id", n.ID).
			Warn("Failed to enqueue scheduled dispatch task")
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"scheduled_for":   at.Format(time.RFC3339),
	}).Info("Notification scheduled")
	return n, nil
}

// DispatchScheduled fires a previously scheduled notification. Rows no
// longer pending are skipped without error, so a cancel that raced the
// due time always wins.
func (s *NotificationService) DispatchScheduled(ctx context.Context, id string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != entity.StatusPending {
		logrus.WithFields(logrus.Fields{
			"notification_id": id,
			"status":          n.Status,
		}).Info("Skipping scheduled dispatch, notification no longer pending")
		return nil
	}

	spec, err := n.Spec()
	if err != nil {
		return err
	}
	recipients, err := s.resolver.Resolve(ctx, spec)
	if err != nil {
		// Leave the row pending; the sweep retries it later.
		return err
	}

	// The broker consumer and the overdue sweep can both reach a due
	// row; the conditional claim lets exactly one of them deliver.
	claimed, err := s.repo.ClaimForDispatch(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		logrus.WithField("notification_id", id).
			Info("Skipping scheduled dispatch, notification already claimed")
		return nil
	}

	now := s.now()
	n.Status = entity.StatusSending
	n.SentAt = &now
	n.DeliveryStats = entity.DeliveryStats{Total: len(recipients), Pending: len(recipients)}
	if err := s.repo.Update(ctx, n); err != nil {
		return fmt.Errorf("failed to mark scheduled notification as sending: %w", err)
	}

	s.deliver(ctx, n, recipients, senderNameOrSystem(n.SentBy))
	return nil
}

// SweepOverdue dispatches pending notifications whose due time has
// passed, covering broker restarts and lost delay tasks. Returns the
// number of notifications dispatched.
func (s *NotificationService) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.GetOverdueScheduled(ctx, s.now())
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, n := range overdue {
		if err := s.DispatchScheduled(ctx, n.ID); err != nil {
			logrus.WithError(err).WithField("notification_id", n.ID).
				Error("Failed to dispatch overdue notification")
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *NotificationService) Scheduled(ctx context.Context) ([]*entity.Notification, error) {
	return s.repo.GetScheduled(ctx, s.now())
}

// CancelScheduled cancels a notification that has not fired yet.
// Anything past pending is not cancellable.
func (s *NotificationService) CancelScheduled(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status != entity.StatusPending || n.ScheduledFor == nil {
		return nil, entity.ErrNotCancellable
	}

	if err := s.repo.UpdateStatus(ctx, id, entity.StatusCancelled); err != nil {
		return nil, err
	}
	n.Status = entity.StatusCancelled

	logrus.WithField("notification_id", id).Info("Scheduled notification cancelled")
	return n, nil
}

func (s *NotificationService) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *NotificationService) History(ctx context.Context, filter entity.HistoryFilter) ([]*entity.Notification, int64, error) {
	return s.repo.History(ctx, filter)
}

func (s *NotificationService) UnreadForUser(ctx context.Context, user *entity.User) ([]*entity.Notification, error) {
	return s.repo.GetUnreadForUser(ctx, user.ID, user.Role, user.AssignedZone)
}

// MarkRead records a read receipt. Repeated calls by the same user
// keep the first receipt untouched.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*entity.Notification, error) {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *NotificationService) Stats(ctx context.Context, since time.Time) (*entity.NotificationStats, error) {
	return s.repo.Stats(ctx, since)
}

// deliver fans the notification out over its enabled channels and
// finalizes delivery stats. Channel outcomes land on a per-dispatch
// tracker; email sends run concurrently and are joined before the
// final persist.
func (s *NotificationService) deliver(ctx context.Context, n *entity.Notification, recipients []entity.Recipient, senderName string) {
	tracker := NewStatsTracker(len(recipients))

	spec, specErr := n.Spec()
	if n.Channels.InApp && specErr == nil {
		if err := s.bc.Broadcast(ctx, spec, EventNotification, n); err != nil {
			logrus.WithError(err).WithField("notification_id", n.ID).
				Error("Failed to broadcast notification")
		}
		if n.Severity == entity.SeverityCritical {
			s.pushCritical(ctx, n, recipients)
		}
	}

	// Email is the only channel with per-recipient feedback, so its
	// outcomes drive the counters when it is enabled. Otherwise the
	// whole audience is counted as delivered up front.
	if n.Channels.Email && len(recipients) > 0 {
		s.sendEmails(ctx, n, recipients, senderName, tracker)
	} else {
		tracker.Apply(len(recipients), 0)
	}

	n.DeliveryStats = tracker.Snapshot()
	if tracker.IsComplete() {
		n.Status = entity.StatusCompleted
		done := s.now()
		n.CompletedAt = &done
	}
	if err := s.repo.Update(ctx, n); err != nil {
		logrus.WithError(err).WithField("notification_id", n.ID).
			Error("Failed to persist delivery stats")
		return
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"type":            n.Type,
		"recipients":      n.DeliveryStats.Total,
		"delivered":       n.DeliveryStats.Delivered,
		"failed":          n.DeliveryStats.Failed,
		"status":          n.Status,
	}).Info("Notification dispatched")
}

func (s *NotificationService) sendEmails(ctx context.Context, n *entity.Notification, recipients []entity.Recipient, senderName string, tracker *StatsTracker) {
	html, err := email.RenderNotification(email.NotificationEmail{
		Title:      n.Title,
		Message:    n.Message,
		Type:       n.Type,
		Severity:   string(n.Severity),
		SenderName: senderName,
		Timestamp:  s.now(),
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to render notification email")
		tracker.Apply(0, len(recipients))
		return
	}
	subject := email.NotificationEmail{Title: n.Title, Severity: string(n.Severity)}.Subject()

	var wg sync.WaitGroup
	for _, rcpt := range recipients {
		if rcpt.Email == "" {
			tracker.Apply(0, 1)
			continue
		}
		wg.Add(1)
		go func(rcpt entity.Recipient) {
			defer wg.Done()
			if err := s.mail.Send(ctx, rcpt.Email, subject, html); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"notification_id": n.ID,
					"recipient":       rcpt.Email,
				}).Error("Failed to send notification email")
				tracker.Apply(0, 1)
				return
			}
			tracker.Apply(1, 0)
		}(rcpt)
	}
	wg.Wait()
}

// pushCritical nudges every recipient's private room so clients can
// surface an OS-level alert even when the shared room is muted.
func (s *NotificationService) pushCritical(ctx context.Context, n *entity.Notification, recipients []entity.Recipient) {
	payload := map[string]interface{}{
		"id":       n.ID,
		"type":     n.Type,
		"title":    n.Title,
		"message":  n.Message,
		"severity": n.Severity,
	}
	for _, rcpt := range recipients {
		if rcpt.ID == "" {
			continue
		}
		if err := s.bc.BroadcastToUser(ctx, rcpt.ID, EventPush, payload); err != nil {
			logrus.WithError(err).WithField("user_id", rcpt.ID).
				Warn("Failed to push critical notification")
		}
	}
}

func (s *NotificationService) newNotification(req *entity.NotificationRequest, actor Actor, now time.Time) *entity.Notification {
	typ := req.Type
	if typ == "" {
		typ = defaultNotificationType
	}
	severity := req.Severity
	if severity == "" {
		severity = entity.SeverityMedium
	}

	return &entity.Notification{
		ID:          uuid.New().String(),
		Type:        typ,
		Title:       req.Title,
		Message:     req.Message,
		Severity:    severity,
		Recipients:  req.Spec.Wire(),
		TargetZone:  req.Spec.Zone,
		SpecificIDs: req.Spec.IDs,
		Channels:    req.Channels,
		SentBy:      actor.Name,
		SentByRole:  actor.Role,
		Metadata:    req.Metadata,
		ReadBy:      []entity.ReadReceipt{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validateRequest(req *entity.NotificationRequest) error {
	if req.Title == "" || req.Message == "" {
		return entity.ErrEmptyTitle
	}
	if req.Severity != "" && !req.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", entity.ErrValidation, req.Severity)
	}
	return nil
}

func senderNameOrSystem(name string) string {
	if name == "" {
		return SystemActor().Name
	}
	return name
}
