// internal/common/narrative/client.go
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	internalhttp "siteintel-workers/internal/common/http"
)

// Facts is the structured summary sent to the narrative service.
type Facts struct {
	LocationScore    float64  `json:"locationScore"`
	GrowthPrediction float64  `json:"growthPrediction"`
	CoveredDomains   []string `json:"coveredDomains"`
	PropertyType     string   `json:"propertyType"`
	PlaceCount       int      `json:"placeCount"`
}

// Client calls the external recommendation narrative service. The service is
// optional: callers treat failures and timeouts as "no recommendations".
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *internalhttp.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: internalhttp.NewClient(timeout),
	}
}

// Recommendations turns structured facts into short narrative strings.
// The call is bounded by the configured timeout regardless of the parent
// context deadline.
func (c *Client) Recommendations(ctx context.Context, facts Facts) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal narrative request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/recommendations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("narrative service returned status %d", resp.StatusCode)
	}

	var result struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode narrative response: %w", err)
	}
	return result.Recommendations, nil
}
