// Package openmeteo fetches hourly forecasts from the Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/restwin/restwin/pkg/night"
)

const defaultBaseURL = "https://api.open-meteo.com"

// hourlyLayout is the timestamp format Open-Meteo uses for hourly data. With
// timezone=auto the strings carry no offset; they are local to the requested
// coordinates.
const hourlyLayout = "2006-01-02T15:04"

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client handles Open-Meteo forecast API operations.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient creates a new Open-Meteo API client.
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

// Hourly fetches temperature and relative humidity for whole calendar days
// from startDate through endDate inclusive. The range is requested by
// calendar date, so it usually contains hours outside the caller's exact
// window; filtering to the window is the aggregator's job, not the
// fetcher's. Timestamps are parsed in loc so they stay comparable with the
// caller's window bounds.
func (c *Client) Hourly(ctx context.Context, lat, lon float64, startDate, endDate time.Time, loc *time.Location) ([]night.Sample, error) {
	apiURL := fmt.Sprintf("%s/v1/forecast?latitude=%f&longitude=%f&hourly=temperature_2m,relative_humidity_2m&timezone=auto&start_date=%s&end_date=%s",
		c.baseURL, lat, lon, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("forecast API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Hourly struct {
			Time             []string  `json:"time"`
			Temperature      []float64 `json:"temperature_2m"`
			RelativeHumidity []float64 `json:"relative_humidity_2m"`
		} `json:"hourly"`
		Timezone string `json:"timezone"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	h := result.Hourly
	if len(h.Temperature) != len(h.Time) || len(h.RelativeHumidity) != len(h.Time) {
		return nil, fmt.Errorf("forecast arrays disagree: %d timestamps, %d temperatures, %d humidities",
			len(h.Time), len(h.Temperature), len(h.RelativeHumidity))
	}

	c.logger.Debug("fetched hourly forecast", "lat", lat, "lon", lon,
		"samples", len(h.Time), "api_timezone", result.Timezone)

	samples := make([]night.Sample, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := time.ParseInLocation(hourlyLayout, ts, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse hourly timestamp %q: %w", ts, err)
		}
		samples = append(samples, night.Sample{
			Time:        t,
			Temperature: h.Temperature[i],
			Humidity:    h.RelativeHumidity[i],
		})
	}

	return samples, nil
}
