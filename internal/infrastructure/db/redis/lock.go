package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

const defaultLockTTL = 30 * time.Second

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a lock taken over by another process.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DispatchLock is a per-event mutual exclusion lock shared by every instance
// of the service.
type DispatchLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDispatchLock returns a lock whose keys expire after ttl, bounding how
// long a crashed holder blocks the event.
func NewDispatchLock(client *redis.Client, ttl time.Duration) *DispatchLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &DispatchLock{client: client, ttl: ttl}
}

// Acquire takes the lock for eventID or returns *domain.ConflictError when
// another holder has it.
func (l *DispatchLock) Acquire(ctx context.Context, eventID string) (func(context.Context) error, error) {
	key := l.key(eventID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !ok {
		return nil, &domain.ConflictError{EventID: eventID}
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release dispatch lock: %w", err)
		}
		return nil
	}
	return release, nil
}

func (l *DispatchLock) key(eventID string) string {
	return "lock:dispatch:" + eventID
}
