package models

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the WGS84 envelope.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Place is a provider-supplied point of interest near an analysed coordinate.
// Immutable once returned by the places provider.
type Place struct {
	Name        string   `json:"name"`
	Categories  []string `json:"categories"`
	Rating      *float64 `json:"rating,omitempty"` // 0-5, optional
	Vicinity    string   `json:"vicinity,omitempty"`
	DistanceKm  float64  `json:"distanceKm"`
	DurationMin float64  `json:"durationMin"`
}

// Risk levels assigned by the location validator.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ValidationResult is the habitability verdict for a coordinate.
// CanProceed=false is a hard block regardless of RiskLevel.
type ValidationResult struct {
	IsValid         bool     `json:"isValid"`
	CanProceed      bool     `json:"canProceed"`
	RiskLevel       string   `json:"riskLevel"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Confidence      float64  `json:"confidence"` // 0-1
}
