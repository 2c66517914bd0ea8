// internal/workers/analysis/geocode-address/models.go
package geocodeaddress

type Input struct {
	Address string `json:"address"`
}

type Output struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
}
