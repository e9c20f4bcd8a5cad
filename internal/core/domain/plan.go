package domain

import "time"

// PlanEntry is one stop of a dispatch plan.
type PlanEntry struct {
	SubscriberID string  `json:"subscriber_id"`
	DistanceKm   float64 `json:"distance_km"`
	// PickupID is the pickup request this stop was recorded as.
	PickupID string `json:"pickup_id,omitempty"`
	// ETAMinutes is nil when the plan was computed without an ETA estimator.
	ETAMinutes *float64 `json:"eta_minutes,omitempty"`
	Sequence   int      `json:"sequence"`
	// Warnings carries non-fatal notification delivery failures for this stop.
	Warnings []string `json:"warnings,omitempty"`
}

// DispatchPlan is the ordered visitation sequence computed for one driver
// against one roster.
type DispatchPlan struct {
	EventID     string      `json:"event_id"`
	Driver      Coordinate  `json:"driver"`
	Entries     []PlanEntry `json:"entries"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Entry returns the plan entry for subscriberID, if present.
func (p *DispatchPlan) Entry(subscriberID string) (*PlanEntry, bool) {
	for i := range p.Entries {
		if p.Entries[i].SubscriberID == subscriberID {
			return &p.Entries[i], true
		}
	}
	return nil, false
}

// NotificationKind identifies the message sent to a subscriber.
type NotificationKind string

const (
	NotificationCommenced   NotificationKind = "commenced"
	NotificationApproaching NotificationKind = "approaching"
)

// NotificationCommand is a request to notify one subscriber. It is handed
// to a sink and never persisted.
type NotificationCommand struct {
	EventID      string           `json:"event_id"`
	SubscriberID string           `json:"subscriber_id"`
	PickupID     string           `json:"pickup_id"`
	Kind         NotificationKind `json:"kind"`
	ETAMinutes   *float64         `json:"eta_minutes,omitempty"`
	Sequence     int              `json:"sequence"`
}

// DeliveryFailure records a notification that could not be delivered.
type DeliveryFailure struct {
	Command NotificationCommand
	Err     error
}
