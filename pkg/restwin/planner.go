// Package restwin plans a bedtime window for a desired wake time and
// annotates it with sunrise and overnight weather context.
package restwin

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/restwin/restwin/pkg/comfort"
	"github.com/restwin/restwin/pkg/httpcache"
	"github.com/restwin/restwin/pkg/night"
	"github.com/restwin/restwin/pkg/openmeteo"
	"github.com/restwin/restwin/pkg/sunrise"
	"github.com/restwin/restwin/pkg/window"
)

// Planner orchestrates the full pipeline: validate, compute the window,
// fetch sunrise and weather concurrently, aggregate, classify.
type Planner struct {
	logger   *slog.Logger
	sunrise  *sunrise.Client
	forecast *openmeteo.Client
	now      func() time.Time
}

// New creates a Planner with the default logger.
func New(opts ...Option) *Planner {
	return NewWithLogger(slog.Default(), opts...)
}

// NewWithLogger creates a Planner.
func NewWithLogger(logger *slog.Logger, opts ...Option) *Planner {
	holder := &OptionHolder{}
	for _, opt := range opts {
		opt(holder)
	}

	httpClient := holder.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var transport httpcache.HTTPClient = httpClient
	if !holder.noCache {
		cache := httpcache.New(1_000, time.Hour, logger)
		transport = httpcache.NewClient(cache, httpClient, logger)
	}

	sunriseClient := sunrise.NewClient(transport, logger)
	if holder.sunriseBaseURL != "" {
		sunriseClient = sunriseClient.WithBaseURL(holder.sunriseBaseURL)
	}
	forecastClient := openmeteo.NewClient(transport, logger)
	if holder.forecastBaseURL != "" {
		forecastClient = forecastClient.WithBaseURL(holder.forecastBaseURL)
	}

	now := holder.now
	if now == nil {
		now = time.Now
	}

	return &Planner{
		logger:   logger,
		sunrise:  sunriseClient,
		forecast: forecastClient,
		now:      now,
	}
}

// Plan computes a bedtime recommendation. Validation failures return an
// *InputError before any network call; a failure of either external call
// returns an *APIError; a forecast that covers none of the sleep window
// returns ErrNoData. No partial results are produced.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	w, err := window.Compute(p.now(), req.WakeHour, req.WakeMinute, req.SleepHours)
	if err != nil {
		return nil, &InputError{Field: "wake time", Reason: err.Error()}
	}

	p.logger.Info("planning sleep window",
		"latitude", req.Latitude, "longitude", req.Longitude,
		"bedtime", w.Bedtime, "wake", w.Wake)

	rise, samples, err := p.fetchContext(ctx, req, w)
	if err != nil {
		return nil, err
	}

	stats := night.Aggregate(samples, w.Bedtime, w.Wake)
	if stats == nil {
		p.logger.Warn("forecast covered no part of the sleep window",
			"samples", len(samples), "bedtime", w.Bedtime, "wake", w.Wake)
		return nil, ErrNoData
	}

	return &Plan{
		Window:  w,
		Sunrise: rise,
		Night:   *stats,
		Comfort: comfort.Classify(*stats),
	}, nil
}

// fetchContext issues the sunrise and forecast calls concurrently: fire both,
// wait for both, and fail the plan on the first error. Sunrise is requested
// for the wake date; the forecast spans whole calendar days from bedtime to
// wake, so it usually includes hours outside the window. The aggregator's
// filter is the only correctness boundary there.
func (p *Planner) fetchContext(ctx context.Context, req Request, w window.Window) (time.Time, []night.Sample, error) {
	var (
		wg         sync.WaitGroup
		rise       time.Time
		riseErr    error
		samples    []night.Sample
		samplesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rise, riseErr = p.sunrise.Sunrise(ctx, req.Latitude, req.Longitude, w.Wake)
	}()
	go func() {
		defer wg.Done()
		samples, samplesErr = p.forecast.Hourly(ctx, req.Latitude, req.Longitude,
			w.Bedtime, w.Wake, w.Bedtime.Location())
	}()
	wg.Wait()

	if riseErr != nil {
		p.logger.Error("sunrise lookup failed", "error", riseErr)
		return time.Time{}, nil, &APIError{API: "sunrise", Err: riseErr}
	}
	if samplesErr != nil {
		p.logger.Error("forecast lookup failed", "error", samplesErr)
		return time.Time{}, nil, &APIError{API: "forecast", Err: samplesErr}
	}

	p.logger.Debug("fetched external context", "sunrise", rise, "forecast_samples", len(samples))
	return rise, samples, nil
}

func validate(req Request) error {
	switch {
	case math.IsNaN(req.Latitude) || math.IsInf(req.Latitude, 0):
		return &InputError{Field: "latitude", Reason: "must be a finite number"}
	case req.Latitude < -90 || req.Latitude > 90:
		return &InputError{Field: "latitude", Reason: "must be between -90 and 90"}
	case math.IsNaN(req.Longitude) || math.IsInf(req.Longitude, 0):
		return &InputError{Field: "longitude", Reason: "must be a finite number"}
	case req.Longitude < -180 || req.Longitude > 180:
		return &InputError{Field: "longitude", Reason: "must be between -180 and 180"}
	case math.IsNaN(req.SleepHours) || math.IsInf(req.SleepHours, 0) || req.SleepHours <= 0:
		return &InputError{Field: "sleep hours", Reason: "must be a positive number"}
	}
	return nil
}
