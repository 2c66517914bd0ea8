// internal/workers/analysis/validate-location/models.go
package validatelocation

type Input struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PropertyType string  `json:"propertyType,omitempty"`
}

type Output struct {
	IsValid         bool     `json:"isValid"`
	CanProceed      bool     `json:"canProceed"`
	RiskLevel       string   `json:"riskLevel"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Confidence      float64  `json:"confidence"`
	CoveredDomains  []string `json:"coveredDomains"`
	PlaceCount      int      `json:"placeCount"`
}
