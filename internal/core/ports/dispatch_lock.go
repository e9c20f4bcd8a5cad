package ports

import "context"

// DispatchLock guards an event against concurrent dispatch runs across
// processes. Acquire returns a *domain.ConflictError when the lock is held.
type DispatchLock interface {
	Acquire(ctx context.Context, eventID string) (release func(context.Context) error, err error)
}
