package alert

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ds124wfegd/emergency-ops/internal/entity"

	"github.com/sirupsen/logrus"
)

const (
	statusDetected = "detected"

	// TypeEmergencyDetection marks notifications produced by this pipeline.
	TypeEmergencyDetection = "emergency_detection"
)

// eventDisplayNames maps raw detection keys to human-readable names.
var eventDisplayNames = map[string]string{
	"fire":              "Fire",
	"smoke":             "Smoke",
	"running":           "Running/Movement",
	"fallen":            "Person Down",
	"medical emergency": "Medical Emergency",
	"stampede":          "Stampede",
}

// Notifier dispatches a system-generated notification request.
type Notifier interface {
	DispatchSystem(ctx context.Context, req *entity.NotificationRequest) (*entity.Notification, error)
}

// EmergencyBroadcaster emits the dedicated emergency-alert event.
type EmergencyBroadcaster interface {
	Broadcast(ctx context.Context, spec entity.RecipientSpec, event string, data interface{}) error
}

// Pipeline consumes raw AI-detection events, gates them through the
// cooldown gate, and turns admitted triggers into critical broadcast
// notifications.
type Pipeline struct {
	gate        *CooldownGate
	notifier    Notifier
	broadcaster EmergencyBroadcaster
}

func NewPipeline(gate *CooldownGate, notifier Notifier, broadcaster EmergencyBroadcaster) *Pipeline {
	return &Pipeline{
		gate:        gate,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// ProcessDetection handles one detection report. Malformed payloads are
// logged and dropped; this method never propagates an error to the
// caller because one bad frame must not take down the intake loop.
func (p *Pipeline) ProcessDetection(ctx context.Context, event *entity.DetectionEvent) {
	if event == nil || event.Events == nil {
		logrus.Warn("Invalid detection events data received, skipping")
		return
	}

	for eventType, result := range event.Events {
		if result.Status != statusDetected {
			continue
		}

		key := fmt.Sprintf("%s_%s", eventType, event.CameraID)
		if !p.gate.Admit(key, result.Confidence) {
			continue
		}

		if err := p.fireAlert(ctx, event, eventType, result.Confidence); err != nil {
			logrus.WithFields(logrus.Fields{
				"event_type": eventType,
				"camera_id":  event.CameraID,
			}).Errorf("Failed to send detection alert: %v", err)
		}
	}
}

func (p *Pipeline) fireAlert(ctx context.Context, event *entity.DetectionEvent, eventType string, confidence float64) error {
	display := DisplayName(eventType)
	title := fmt.Sprintf("%s Alert", display)
	message := fmt.Sprintf("%s detected with %d%% confidence at %s. Immediate response required.",
		display, int(math.Round(confidence*100)), event.Location())

	req := &entity.NotificationRequest{
		Type:     TypeEmergencyDetection,
		Title:    title,
		Message:  message,
		Severity: entity.SeverityCritical,
		Spec:     entity.SpecForAll(),
		Channels: entity.Channels{InApp: true, Email: true, SMS: true},
		Metadata: map[string]interface{}{
			"event_type": eventType,
			"confidence": confidence,
			"camera_id":  event.CameraID,
			"location":   event.Location(),
			"timestamp":  event.Timestamp,
			"alert_type": "detection_alert",
		},
	}

	notification, err := p.notifier.DispatchSystem(ctx, req)
	if err != nil {
		return err
	}

	// Dedicated emergency event on top of the regular notification
	// broadcast, so clients can trigger modal and audio handling.
	alertPayload := map[string]interface{}{
		"id":        notification.ID,
		"type":      TypeEmergencyDetection,
		"title":     title,
		"message":   message,
		"severity":  entity.SeverityCritical,
		"timestamp": time.Now(),
		"metadata":  req.Metadata,
	}
	if err := p.broadcaster.Broadcast(ctx, entity.SpecForAll(), "emergency-alert", alertPayload); err != nil {
		logrus.Errorf("Failed to broadcast emergency alert: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"event_type": eventType,
		"camera_id":  event.CameraID,
		"recipients": notification.DeliveryStats.Total,
	}).Info("Emergency detection alert sent")
	return nil
}

// DisplayName returns the human-readable name of a detection event type.
func DisplayName(eventType string) string {
	if name, ok := eventDisplayNames[eventType]; ok {
		return name
	}
	if eventType == "" {
		return eventType
	}
	r, size := utf8.DecodeRuneInString(eventType)
	return string(unicode.ToUpper(r)) + eventType[size:]
}
