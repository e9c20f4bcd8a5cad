package ports

import (
	"context"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// PickupRepository persists pickup requests. Implementations return
// domain.ErrNotFound when no matching record exists.
type PickupRepository interface {
	Create(ctx context.Context, req *domain.PickupRequest) error
	// FindActive returns the non-terminal request for (eventID, subscriberID).
	FindActive(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error)
	// ListActive returns every non-terminal request for eventID.
	ListActive(ctx context.Context, eventID string) ([]*domain.PickupRequest, error)
	// Update replaces status, location, sequence and updated_at of an existing request.
	Update(ctx context.Context, req *domain.PickupRequest) error
}
