package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

const dedupTTL = 24 * time.Hour

// DedupChecker remembers delivered notification commands so that a
// re-dispatch never notifies a pickup request twice for the same kind.
// Key format: dedup:<event_id>:<subscriber_id>:<pickup_id>:<kind>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// IsDuplicate reports whether cmd has already been marked.
func (d *DedupChecker) IsDuplicate(ctx context.Context, cmd domain.NotificationCommand) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(cmd)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records cmd as delivered (expires after the checker's TTL).
func (d *DedupChecker) Mark(ctx context.Context, cmd domain.NotificationCommand) error {
	if err := d.client.Set(ctx, d.key(cmd), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func (d *DedupChecker) key(cmd domain.NotificationCommand) string {
	return fmt.Sprintf("dedup:%s:%s:%s:%s", cmd.EventID, cmd.SubscriberID, cmd.PickupID, cmd.Kind)
}
