package routing

import (
	"fmt"
	"math"
	"time"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// DefaultSpeedKmh is the assumed average driving speed.
const DefaultSpeedKmh = 30.0

// Estimator converts distances into travel time at a constant average speed.
type Estimator struct {
	speedKmh float64
}

// NewEstimator returns an Estimator for speedKmh. A non-positive or
// non-finite speed is rejected here so that Minutes never has to fail.
func NewEstimator(speedKmh float64) (*Estimator, error) {
	if math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) || speedKmh <= 0 {
		return nil, &domain.ValidationError{
			Field:  "average_speed_kmh",
			Reason: fmt.Sprintf("must be a positive finite number, got %v", speedKmh),
		}
	}
	return &Estimator{speedKmh: speedKmh}, nil
}

// SpeedKmh returns the configured average speed.
func (e *Estimator) SpeedKmh() float64 {
	return e.speedKmh
}

// Minutes returns the estimated travel time for distanceKm.
// An unreachable (+Inf) distance yields +Inf.
func (e *Estimator) Minutes(distanceKm float64) float64 {
	return (distanceKm / e.speedKmh) * 60.0
}

// Duration is Minutes expressed as a time.Duration.
func (e *Estimator) Duration(distanceKm float64) time.Duration {
	m := e.Minutes(distanceKm)
	if math.IsInf(m, 1) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(m * float64(time.Minute)))
}
