// Package sunrise looks up sunrise times via the sunrise-sunset.org API.
package sunrise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.sunrise-sunset.org"

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client handles sunrise-sunset.org API operations.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a new sunrise API client.
func NewClient(httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Sunrise returns the sunrise instant for the given coordinates and calendar
// date. The API is queried with formatted=0 so the timestamp comes back as
// ISO 8601 with offset.
func (c *Client) Sunrise(ctx context.Context, lat, lon float64, date time.Time) (time.Time, error) {
	apiURL := fmt.Sprintf("%s/json?lat=%f&lng=%f&date=%s&formatted=0",
		c.baseURL, lat, lon, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("sunrise request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return time.Time{}, fmt.Errorf("sunrise API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Results struct {
			Sunrise string `json:"sunrise"`
			Sunset  string `json:"sunset"`
		} `json:"results"`
		Status string `json:"status"`
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, err
	}

	bodyPreviewLen := 200
	if len(body) < bodyPreviewLen {
		bodyPreviewLen = len(body)
	}
	c.logger.Debug("sunrise API raw response", "lat", lat, "lon", lon,
		"status", resp.StatusCode, "body_preview", string(body[:bodyPreviewLen]))

	if err := json.Unmarshal(body, &result); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sunrise response: %w", err)
	}

	if result.Status != "OK" {
		return time.Time{}, fmt.Errorf("sunrise lookup failed: %s", result.Status)
	}

	rise, err := time.Parse(time.RFC3339, result.Results.Sunrise)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sunrise timestamp %q: %w", result.Results.Sunrise, err)
	}

	return rise, nil
}
