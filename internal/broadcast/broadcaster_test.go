package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

type capturingPublisher struct {
	channels []string
	payloads [][]byte
	failFor  map[string]bool
}

func (p *capturingPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if p.failFor[channel] {
		return errors.New("connection reset")
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestBroadcastRoomMapping(t *testing.T) {
	tests := []struct {
		name     string
		spec     entity.RecipientSpec
		channels []string
	}{
		{
			name:     "all goes to the global room",
			spec:     entity.SpecForAll(),
			channels: []string{"rooms:all"},
		},
		{
			name:     "role goes to the role room",
			spec:     entity.SpecForRole(entity.RoleResponder),
			channels: []string{"rooms:room:responder"},
		},
		{
			name:     "zone goes to the zone room",
			spec:     entity.SpecForZone("north-gate"),
			channels: []string{"rooms:room:north-gate"},
		},
		{
			name:     "specific goes to each private room",
			spec:     entity.SpecForUsers([]string{"u1", "u2"}),
			channels: []string{"rooms:user:u1", "rooms:user:u2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &capturingPublisher{}
			b := NewBroadcaster(pub)

			err := b.Broadcast(context.Background(), tt.spec, "notification", map[string]string{"k": "v"})
			require.NoError(t, err)
			assert.Equal(t, tt.channels, pub.channels)
		})
	}
}

func TestBroadcastEnvelope(t *testing.T) {
	pub := &capturingPublisher{}
	b := NewBroadcaster(pub)

	err := b.Broadcast(context.Background(), entity.SpecForAll(), "emergency-alert", map[string]string{"title": "Fire Alert"})
	require.NoError(t, err)
	require.Len(t, pub.payloads, 1)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &envelope))
	assert.Equal(t, "emergency-alert", envelope.Event)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Fire Alert", data["title"])
}

func TestBroadcastInvalidSpec(t *testing.T) {
	pub := &capturingPublisher{}
	b := NewBroadcaster(pub)

	err := b.Broadcast(context.Background(), entity.SpecForZone(""), "notification", nil)
	assert.ErrorIs(t, err, entity.ErrEmptyZone)
	assert.Empty(t, pub.channels)
}

func TestBroadcastSpecificContinuesPastFailedRoom(t *testing.T) {
	pub := &capturingPublisher{failFor: map[string]bool{"rooms:user:u2": true}}
	b := NewBroadcaster(pub)

	err := b.Broadcast(context.Background(), entity.SpecForUsers([]string{"u1", "u2", "u3"}),
		"notification", map[string]string{"k": "v"})
	assert.Error(t, err, "failed rooms are still reported")
	assert.Equal(t, []string{"rooms:user:u1", "rooms:user:u3"}, pub.channels,
		"remaining rooms are reached despite the failure")
}

func TestBroadcastToUser(t *testing.T) {
	pub := &capturingPublisher{}
	b := NewBroadcaster(pub)

	err := b.BroadcastToUser(context.Background(), "u7", "push-notification", map[string]string{"title": "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rooms:user:u7"}, pub.channels)
}
