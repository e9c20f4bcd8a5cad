// Package routing computes dispatch plans: great-circle distances, ETAs, the
// route graph over a driver and its stops, shortest paths on that graph and
// the resulting visitation order.
//
// Everything in this package is pure and safe for concurrent use.
package routing

import (
	"math"

	"github.com/99minutos/event-pickup/internal/core/domain"
)

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
// Callers must validate both coordinates first.
func Haversine(a, b domain.Coordinate) float64 {
	// Evaluate in a canonical argument order so the result is bit-identical
	// regardless of which point is passed first.
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lng < a.Lng) {
		a, b = b, a
	}

	lat1 := degToRad(a.Lat)
	lat2 := degToRad(b.Lat)
	dLat := degToRad(b.Lat - a.Lat)
	dLng := degToRad(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	// rounding can push h just past 1 for near-antipodal points
	h = math.Max(0, math.Min(1, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
