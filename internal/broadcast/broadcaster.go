// Package broadcast maps recipient specs onto room-scoped pub/sub
// channels. Delivery is at-most-once and best-effort: publishing to a
// room with no subscribers is a silent no-op, and no acknowledgement is
// collected. Offline clients catch up through the unread read-model.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/emergency-ops/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Room channel layout. Role rooms are named exactly by the role string,
// zone rooms by the zone name, per-user rooms by the user id.
const (
	globalChannel = "rooms:all"
	roomPrefix    = "rooms:room:"
	userPrefix    = "rooms:user:"
)

// Publisher is the transport the broadcaster publishes through.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Envelope is the wire format of one realtime event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Broadcaster struct {
	pub Publisher
}

func NewBroadcaster(pub Publisher) *Broadcaster {
	return &Broadcaster{pub: pub}
}

// Broadcast publishes one event to the rooms selected by spec:
// all -> global channel, role -> role room, zone -> zone room,
// specific -> each user's private room.
func (b *Broadcaster) Broadcast(ctx context.Context, spec entity.RecipientSpec, event string, data interface{}) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	switch spec.Kind {
	case entity.SpecAll:
		return b.publish(ctx, globalChannel, event, payload)
	case entity.SpecRole:
		return b.publish(ctx, roomPrefix+string(spec.Role), event, payload)
	case entity.SpecZone:
		return b.publish(ctx, roomPrefix+spec.Zone, event, payload)
	case entity.SpecSpecific:
		// One bad room must not starve the rest of the audience.
		var failed int
		for _, id := range spec.IDs {
			if err := b.publish(ctx, userPrefix+id, event, payload); err != nil {
				logrus.WithError(err).WithField("user_id", id).
					Warn("Failed to publish to user room")
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("failed to publish %s to %d of %d user rooms", event, failed, len(spec.IDs))
		}
		return nil
	}
	return fmt.Errorf("%w: kind %q", entity.ErrInvalidSpec, spec.Kind)
}

// BroadcastToUser publishes one event to a single user's private room.
func (b *Broadcaster) BroadcastToUser(ctx context.Context, userID, event string, data interface{}) error {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}
	return b.publish(ctx, userPrefix+userID, event, payload)
}

func (b *Broadcaster) publish(ctx context.Context, channel, event string, payload []byte) error {
	if err := b.pub.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event, channel, err)
	}

	logrus.WithFields(logrus.Fields{
		"channel": channel,
		"event":   event,
	}).Debug("Broadcast published")
	return nil
}
