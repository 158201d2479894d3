package restwin

import (
	"net/http"
	"time"

	"github.com/restwin/restwin/pkg/night"
	"github.com/restwin/restwin/pkg/window"
)

// Request carries the user's form inputs.
type Request struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	WakeHour   int     `json:"wake_hour"`
	WakeMinute int     `json:"wake_minute"`
	SleepHours float64 `json:"sleep_hours"`
}

// Plan is the assembled recommendation for one request.
type Plan struct {
	Window  window.Window `json:"window"`
	Sunrise time.Time     `json:"sunrise"`
	Night   night.Stats   `json:"night"`
	Comfort string        `json:"comfort"`
}

// Option configures a Planner.
type Option func(*OptionHolder)

// OptionHolder collects option values before the Planner is built.
type OptionHolder struct {
	httpClient      *http.Client
	sunriseBaseURL  string
	forecastBaseURL string
	now             func() time.Time
	noCache         bool
}

// WithHTTPClient sets the transport used for both API clients.
func WithHTTPClient(client *http.Client) Option {
	return func(o *OptionHolder) { o.httpClient = client }
}

// WithSunriseBaseURL overrides the sunrise API endpoint.
func WithSunriseBaseURL(base string) Option {
	return func(o *OptionHolder) { o.sunriseBaseURL = base }
}

// WithForecastBaseURL overrides the weather API endpoint.
func WithForecastBaseURL(base string) Option {
	return func(o *OptionHolder) { o.forecastBaseURL = base }
}

// WithNowFunc fixes the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(o *OptionHolder) { o.now = now }
}

// WithNoCache disables the in-memory API response cache.
func WithNoCache() Option {
	return func(o *OptionHolder) { o.noCache = true }
}
