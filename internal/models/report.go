package models

// Distance carries travel distance/duration from the analysed coordinate to a place.
type Distance struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
}

// ScoredReport is the full analysis result, computed once at session-creation
// time. Tier gating is a read-time projection and never mutates this struct.
type ScoredReport struct {
	LocationScore    float64             `json:"locationScore"`    // 0-5
	GrowthPrediction float64             `json:"growthPrediction"` // percent
	NearbyPlaces     []Place             `json:"nearbyPlaces"`
	Distances        map[string]Distance `json:"distances"`
}

// ReportView is a tier-projected view of a ScoredReport. Fields absent from
// the requested tier are omitted from the JSON rather than zeroed.
type ReportView struct {
	LocationScore    float64             `json:"locationScore"`
	GrowthPrediction *float64            `json:"growthPrediction,omitempty"`
	NearbyPlaces     []Place             `json:"nearbyPlaces"`
	Distances        map[string]Distance `json:"distances"`
	Recommendations  []string            `json:"recommendations,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
}
