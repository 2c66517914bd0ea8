// internal/workers/payment/get-result/models.go
package getresult

import "siteintel-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
}

type Output struct {
	SessionID        string                     `json:"sessionId"`
	PlanTier         string                     `json:"planTier"`
	Status           string                     `json:"status"`
	LocationScore    float64                    `json:"locationScore"`
	GrowthPrediction *float64                   `json:"growthPrediction,omitempty"`
	NearbyPlaces     []models.Place             `json:"nearbyPlaces"`
	Distances        map[string]models.Distance `json:"distances"`
	Recommendations  []string                   `json:"recommendations,omitempty"`
	Warnings         []string                   `json:"warnings,omitempty"`
}
