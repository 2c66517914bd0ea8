// internal/workers/payment/create-session/models.go
package createsession

import "siteintel-workers/internal/models"

type Input struct {
	Latitude         float64                    `json:"latitude"`
	Longitude        float64                    `json:"longitude"`
	PropertyType     string                     `json:"propertyType"`
	PlanTier         string                     `json:"planTier"`
	CanProceed       bool                       `json:"canProceed"`
	RiskLevel        string                     `json:"riskLevel"`
	LocationScore    float64                    `json:"locationScore"`
	GrowthPrediction float64                    `json:"growthPrediction"`
	NearbyPlaces     []models.Place             `json:"nearbyPlaces"`
	Distances        map[string]models.Distance `json:"distances"`
}

type Output struct {
	SessionID string `json:"sessionId"`
	Amount    int64  `json:"amount"`
	PlanTier  string `json:"planTier"`
	Status    string `json:"status"`
}
