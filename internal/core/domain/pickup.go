package domain

import "time"

// PickupStatus represents the lifecycle state of a pickup request.
type PickupStatus string

const (
	PickupRequested PickupStatus = "requested"
	PickupNotified  PickupStatus = "notified"
	PickupCompleted PickupStatus = "completed"
	PickupCanceled  PickupStatus = "canceled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[PickupStatus][]PickupStatus{
	PickupRequested: {PickupNotified, PickupCanceled},
	PickupNotified:  {PickupCompleted, PickupCanceled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s PickupStatus) CanTransitionTo(next PickupStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s PickupStatus) IsTerminal() bool {
	return s == PickupCompleted || s == PickupCanceled
}

// PickupRequest is the record of one subscriber's pickup for one event.
// Sequence stays nil until the request has been placed in a dispatch plan.
type PickupRequest struct {
	ID           string       `json:"id" bson:"_id"`
	SubscriberID string       `json:"subscriber_id" bson:"subscriber_id"`
	EventID      string       `json:"event_id" bson:"event_id"`
	Location     Coordinate   `json:"location" bson:"location"`
	Status       PickupStatus `json:"status" bson:"status"`
	Sequence     *int         `json:"sequence,omitempty" bson:"sequence,omitempty"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the request is still awaiting pickup.
func (p *PickupRequest) Active() bool {
	return !p.Status.IsTerminal()
}
