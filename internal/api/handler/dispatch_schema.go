package handler

import "time"

// --- Requests ---

type coordinateRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

type stopRequest struct {
	SubscriberID string            `json:"subscriber_id" validate:"required"`
	Location     coordinateRequest `json:"location"`
}

type dispatchRequest struct {
	Driver coordinateRequest `json:"driver"`
	Roster []stopRequest     `json:"roster" validate:"dive"`
	Mode   string            `json:"mode"   validate:"omitempty,oneof=progressive immediate"`
}

type signalRequest struct {
	EventID      string `json:"event_id"      validate:"required"`
	SubscriberID string `json:"subscriber_id" validate:"required"`
	Kind         string `json:"kind"          validate:"required,oneof=complete cancel"`
}

// --- Responses ---

type coordinateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type planEntryResponse struct {
	SubscriberID string   `json:"subscriber_id"`
	Sequence     int      `json:"sequence"`
	DistanceKm   float64  `json:"distance_km"`
	ETAMinutes   *float64 `json:"eta_minutes,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type planResponse struct {
	EventID     string              `json:"event_id"`
	Driver      coordinateResponse  `json:"driver"`
	GeneratedAt time.Time           `json:"generated_at"`
	Entries     []planEntryResponse `json:"entries"`
}

type pickupResponse struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	SubscriberID string             `json:"subscriber_id"`
	Status       string             `json:"status"`
	Sequence     *int               `json:"sequence,omitempty"`
	Location     coordinateResponse `json:"location"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type pickupListResponse struct {
	EventID string           `json:"event_id"`
	Pickups []pickupResponse `json:"pickups"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
}
