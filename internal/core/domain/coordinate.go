package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Validate reports whether the coordinate lies within the WGS-84 ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: "lat", Reason: fmt.Sprintf("%v is outside [-90, 90]", c.Lat)}
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) || c.Lng < -180 || c.Lng > 180 {
		return &ValidationError{Field: "lng", Reason: fmt.Sprintf("%v is outside [-180, 180]", c.Lng)}
	}
	return nil
}

// Stop is one subscriber's pickup location for a single event.
type Stop struct {
	SubscriberID string     `json:"subscriber_id"`
	Location     Coordinate `json:"location"`
}
