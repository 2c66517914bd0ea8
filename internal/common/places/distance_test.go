// internal/common/places/distance_test.go
package places

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"siteintel-workers/internal/models"
)

func TestWalkingDurationKeepsFractionalMinutes(t *testing.T) {
	// 400m at 12 min/km is 4.8 minutes; the estimate must not be
	// truncated to whole minutes.
	assert.Equal(t, 4.8, WalkingDuration(0.4))
	assert.Equal(t, 12.0, WalkingDuration(1.0))

	place := models.Place{DistanceKm: 0.4, DurationMin: WalkingDuration(0.4)}
	assert.Equal(t, 4.8, place.DurationMin)

	distance := models.Distance{DistanceKm: 0.4, DurationMin: place.DurationMin}
	assert.Equal(t, 4.8, distance.DurationMin)
}
