package ports

import (
	"context"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// NotificationSink delivers a notification command to its transport.
// Delivery is best-effort; the caller never retries.
type NotificationSink interface {
	Deliver(ctx context.Context, cmd domain.NotificationCommand) error
}

// DeliveryDeduper records which notification commands were already handed
// to a sink so that each is sent at most once.
type DeliveryDeduper interface {
	IsDuplicate(ctx context.Context, cmd domain.NotificationCommand) (bool, error)
	Mark(ctx context.Context, cmd domain.NotificationCommand) error
}
