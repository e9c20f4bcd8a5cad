package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

const defaultChannelPrefix = "pickup:notifications"

// message is the payload published for one notification command.
type message struct {
	EventID      string   `json:"event_id"`
	SubscriberID string   `json:"subscriber_id"`
	PickupID     string   `json:"pickup_id"`
	Kind         string   `json:"kind"`
	Sequence     int      `json:"sequence"`
	ETAMinutes   *float64 `json:"eta_minutes,omitempty"`
}

// RedisSink publishes commands on a per-event pub/sub channel
// "<prefix>:<event_id>" for the push gateway to fan out to devices.
type RedisSink struct {
	client *redis.Client
	prefix string
}

func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &RedisSink{client: client, prefix: prefix}
}

// Channel returns the channel commands of eventID are published on.
func (s *RedisSink) Channel(eventID string) string {
	return s.prefix + ":" + eventID
}

func (s *RedisSink) Deliver(ctx context.Context, cmd domain.NotificationCommand) error {
	payload, err := json.Marshal(message{
		EventID:      cmd.EventID,
		SubscriberID: cmd.SubscriberID,
		PickupID:     cmd.PickupID,
		Kind:         string(cmd.Kind),
		Sequence:     cmd.Sequence,
		ETAMinutes:   cmd.ETAMinutes,
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := s.client.Publish(ctx, s.Channel(cmd.EventID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
