package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type fakeNotifier struct {
	requests []*entity.NotificationRequest
	err      error
}

func (f *fakeNotifier) DispatchSystem(ctx context.Context, req *entity.NotificationRequest) (*entity.Notification, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Notification{
		ID:            "n-1",
		DeliveryStats: entity.DeliveryStats{Total: 3, Delivered: 3},
	}, nil
}

type fakeEmergencyBroadcaster struct {
	events []string
	specs  []entity.RecipientSpec
}

func (f *fakeEmergencyBroadcaster) Broadcast(ctx context.Context, spec entity.RecipientSpec, event string, data interface{}) error {
	f.events = append(f.events, event)
	f.specs = append(f.specs, spec)
	return nil
}

func newTestPipeline() (*Pipeline, *fakeNotifier, *fakeEmergencyBroadcaster) {
	notifier := &fakeNotifier{}
	broadcaster := &fakeEmergencyBroadcaster{}
	gate := NewCooldownGate(0.5, 30*time.Second, 16)
	return NewPipeline(gate, notifier, broadcaster), notifier, broadcaster
}

func TestProcessDetectionFiresAlert(t *testing.T) {
	pipeline, notifier, broadcaster := newTestPipeline()

	pipeline.ProcessDetection(context.Background(), &entity.DetectionEvent{
		Timestamp: "2025-06-01T12:00:00Z",
		CameraID:  "cam-7",
		Events: map[string]entity.DetectionResult{
			"fire": {Confidence: 0.87, Status: "detected"},
		},
		CameraInfo: &entity.CameraInfo{Location: "North Gate"},
	})

	require.Len(t, notifier.requests, 1)
	req := notifier.requests[0]
	assert.Equal(t, TypeEmergencyDetection, req.Type)
	assert.Equal(t, "Fire Alert", req.Title)
	assert.Equal(t, "Fire detected with 87% confidence at North Gate. Immediate response required.", req.Message)
	assert.Equal(t, entity.SeverityCritical, req.Severity)
	assert.Equal(t, entity.SpecAll, req.Spec.Kind)
	assert.True(t, req.Channels.InApp)
	assert.True(t, req.Channels.Email)
	assert.Equal(t, "cam-7", req.Metadata["camera_id"])

	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, "emergency-alert", broadcaster.events[0])
	assert.Equal(t, entity.SpecAll, broadcaster.specs[0].Kind)
}

func TestProcessDetectionMalformedPayload(t *testing.T) {
	pipeline, notifier, _ := newTestPipeline()

	// Nil events map must be absorbed without dispatching anything.
	pipeline.ProcessDetection(context.Background(), nil)
	pipeline.ProcessDetection(context.Background(), &entity.DetectionEvent{CameraID: "cam-1"})

	assert.Empty(t, notifier.requests)
}

func TestProcessDetectionFiltersReadings(t *testing.T) {
	pipeline, notifier, _ := newTestPipeline()

	pipeline.ProcessDetection(context.Background(), &entity.DetectionEvent{
		CameraID: "cam-1",
		Events: map[string]entity.DetectionResult{
			"fire":   {Confidence: 0.4, Status: "detected"},  // below threshold
			"smoke":  {Confidence: 0.9, Status: "clear"},     // not detected
			"fallen": {Confidence: 0.8, Status: "detected"},  // fires
		},
	})

	require.Len(t, notifier.requests, 1)
	assert.Equal(t, "Person Down Alert", notifier.requests[0].Title)
}

func TestProcessDetectionCooldownSuppressesRepeat(t *testing.T) {
	pipeline, notifier, _ := newTestPipeline()

	event := &entity.DetectionEvent{
		CameraID: "cam-1",
		Events: map[string]entity.DetectionResult{
			"fire": {Confidence: 0.9, Status: "detected"},
		},
	}

	pipeline.ProcessDetection(context.Background(), event)
	pipeline.ProcessDetection(context.Background(), event)

	assert.Len(t, notifier.requests, 1)
}

func TestProcessDetectionUnknownLocationFallback(t *testing.T) {
	pipeline, notifier, _ := newTestPipeline()

	pipeline.ProcessDetection(context.Background(), &entity.DetectionEvent{
		CameraID: "cam-9",
		Events: map[string]entity.DetectionResult{
			"stampede": {Confidence: 0.75, Status: "detected"},
		},
	})

	require.Len(t, notifier.requests, 1)
	assert.Contains(t, notifier.requests[0].Message, "at Unknown Location")
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{"fire", "Fire"},
		{"smoke", "Smoke"},
		{"running", "Running/Movement"},
		{"fallen", "Person Down"},
		{"medical emergency", "Medical Emergency"},
		{"stampede", "Stampede"},
		{"intrusion", "Intrusion"},
		{"évacuation", "Évacuation"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.eventType))
		})
	}
}
