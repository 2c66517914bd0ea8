// internal/common/geoip/client.go
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	internalhttp "siteintel-workers/internal/common/http"
)

// Client resolves a client IP to an ISO country code via an ip-api style
// lookup service. Lookups carry a hard timeout so currency resolution can
// fall back quickly instead of blocking pricing.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *internalhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: internalhttp.NewClient(timeout),
	}
}

// CountryCode returns the two-letter country code for the given IP.
func (c *Client) CountryCode(ctx context.Context, ip string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s?fields=status,countryCode", c.baseURL, ip)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geoip request: %w", err)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("geoip request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geoip service returned status %d", resp.StatusCode)
	}

	var result struct {
		Status      string `json:"status"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode geoip response: %w", err)
	}
	if result.Status != "success" || result.CountryCode == "" {
		return "", fmt.Errorf("geoip lookup failed for %s", ip)
	}
	return result.CountryCode, nil
}
