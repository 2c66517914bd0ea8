// internal/workers/analysis/score-location/models.go
package scorelocation

import "siteintel-workers/internal/models"

type Input struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PropertyType string  `json:"propertyType,omitempty"`

	// Places lets an orchestration reuse places fetched by an earlier
	// task instead of querying the provider again.
	Places []models.Place `json:"places,omitempty"`
}

type Output struct {
	LocationScore    float64                    `json:"locationScore"`
	GrowthPrediction float64                    `json:"growthPrediction"`
	NearbyPlaces     []models.Place             `json:"nearbyPlaces"`
	Distances        map[string]models.Distance `json:"distances"`
	CoveredDomains   []string                   `json:"coveredDomains"`
}

// Report converts the worker output into the persisted report shape.
func (o *Output) Report() *models.ScoredReport {
	return &models.ScoredReport{
		LocationScore:    o.LocationScore,
		GrowthPrediction: o.GrowthPrediction,
		NearbyPlaces:     o.NearbyPlaces,
		Distances:        o.Distances,
	}
}
