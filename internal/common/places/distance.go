// internal/common/places/distance.go
package places

import (
	"math"

	"siteintel-workers/internal/models"
)

const (
	earthRadiusKm = 6371

	// Walking pace used to estimate travel durations when no routing
	// provider is available. 12 min/km is a conservative urban pace.
	walkingMinPerKm = 12
)

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(from, to models.Coordinate) float64 {
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(from.Lat*math.Pi/180)*math.Cos(to.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// WalkingDuration estimates walking time in minutes for a distance in km.
func WalkingDuration(distanceKm float64) float64 {
	return math.Round(distanceKm*walkingMinPerKm*10) / 10
}
