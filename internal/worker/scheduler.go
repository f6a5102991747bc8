package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/emergency-ops/internal/rabbitMQ"
	"github.com/ds124wfegd/emergency-ops/internal/service"
)

// Scheduler dispatches scheduled notifications when they come due.
// The primary path is the broker's delayed task; the periodic sweep
// is the safety net for tasks lost across broker restarts.
type Scheduler struct {
	notifications service.Notifications
	queue         rabbitMQ.Queue
	sweepInterval time.Duration
}

type scheduledTask struct {
	NotificationID string `json:"notification_id"`
}

func NewScheduler(notifications service.Notifications, queue rabbitMQ.Queue, sweepInterval time.Duration) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Scheduler{
		notifications: notifications,
		queue:         queue,
		sweepInterval: sweepInterval,
	}
}

// Run starts the queue consumer and the sweep loop, blocking until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.queue.Consume(ctx, func(body []byte) error {
		return s.handleTask(ctx, body)
	}); err != nil {
		return fmt.Errorf("failed to start scheduler consumer: %w", err)
	}

	logrus.WithField("sweep_interval", s.sweepInterval).Info("Notification scheduler started")

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			dispatched, err := s.notifications.SweepOverdue(ctx)
			if err != nil {
				logrus.WithError(err).Error("Overdue sweep failed")
				continue
			}
			if dispatched > 0 {
				logrus.WithField("count", dispatched).Info("Dispatched overdue notifications")
			}
		}
	}
}

// handleTask fires one due notification. Returning an error requeues
// the task, so lookup misses are swallowed: a cancelled and purged row
// must not loop forever.
func (s *Scheduler) handleTask(ctx context.Context, body []byte) error {
	var task scheduledTask
	if err := json.Unmarshal(body, &task); err != nil {
		logrus.WithError(err).Warn("Dropping malformed scheduler task")
		return nil
	}
	if task.NotificationID == "" {
		return nil
	}

	if err := s.notifications.DispatchScheduled(ctx, task.NotificationID); err != nil {
		logrus.WithError(err).WithField("notification_id", task.NotificationID).
			Error("Failed to dispatch scheduled notification")
		return nil
	}
	return nil
}
