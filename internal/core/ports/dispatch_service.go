package ports

import (
	"context"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// DispatchMode selects how approaching notifications are emitted.
type DispatchMode string

const (
	// ModeProgressive notifies the first stop now and each following stop
	// as the previous one is completed or canceled.
	ModeProgressive DispatchMode = "progressive"
	// ModeImmediate notifies every stop in plan order right away.
	ModeImmediate DispatchMode = "immediate"
)

// DispatchInput is the DTO passed from the transport layer to DispatchService.
type DispatchInput struct {
	EventID string
	Driver  domain.Coordinate
	Roster  []domain.Stop
	Mode    DispatchMode
}

// SignalKind is an external pickup signal.
type SignalKind string

const (
	SignalComplete SignalKind = "complete"
	SignalCancel   SignalKind = "cancel"
)

// SignalInput carries a complete or cancel signal for one pickup.
type SignalInput struct {
	EventID      string
	SubscriberID string
	Kind         SignalKind
}

// DispatchService computes plans and drives the pickup sequence for an event.
type DispatchService interface {
	Dispatch(ctx context.Context, in DispatchInput) (*domain.DispatchPlan, error)
	Complete(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error)
	Cancel(ctx context.Context, eventID, subscriberID string) (*domain.PickupRequest, error)
	// CurrentPlan returns the last plan computed for eventID.
	CurrentPlan(eventID string) (*domain.DispatchPlan, error)
	ListPickups(ctx context.Context, eventID string) ([]*domain.PickupRequest, error)
}

// SignalProcessor handles asynchronously ingested signals.
type SignalProcessor interface {
	ProcessSignal(ctx context.Context, in SignalInput) error
}
