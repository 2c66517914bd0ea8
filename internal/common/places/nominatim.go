// internal/common/places/nominatim.go
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	internalhttp "siteintel-workers/internal/common/http"
	"siteintel-workers/internal/models"
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinate, string, error)
}

// NominatimGeocoder resolves addresses through the OSM Nominatim API.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *internalhttp.Client
	userAgent  string
}

func NewNominatimGeocoder(baseURL string, timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL:    baseURL,
		httpClient: internalhttp.NewClient(timeout),
		userAgent:  "siteintel-workers/1.0",
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best-match coordinate and formatted address for the
// given free-text query. An empty result set is reported as an error so the
// caller can distinguish "no match" from transport failures.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (models.Coordinate, string, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=jsonv2&limit=1", g.baseURL, url.QueryEscape(address))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinate{}, "", fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return models.Coordinate{}, "", fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, "", fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Coordinate{}, "", fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinate{}, "", fmt.Errorf("no results for address %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinate{}, "", fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinate{}, "", fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	return models.Coordinate{Lat: lat, Lng: lng}, results[0].DisplayName, nil
}
