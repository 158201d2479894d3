package restwin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
}

func sunriseServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":{"sunrise":"2025-03-11T06:12:34+00:00"},"status":"OK"}`))
	}))
}

func forecastServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var times, temps, hums []string
		// 20:00 on the 10th through 09:00 on the 11th; the aggregator must
		// ignore everything outside 23:00-07:00.
		for h := 20; h < 24; h++ {
			times = append(times, fmt.Sprintf("%q", fmt.Sprintf("2025-03-10T%02d:00", h)))
			temps = append(temps, "18")
			hums = append(hums, "50")
		}
		for h := 0; h <= 9; h++ {
			times = append(times, fmt.Sprintf("%q", fmt.Sprintf("2025-03-11T%02d:00", h)))
			temps = append(temps, "16")
			hums = append(hums, "60")
		}
		fmt.Fprintf(w, `{"hourly":{"time":[%s],"temperature_2m":[%s],"relative_humidity_2m":[%s]}}`,
			strings.Join(times, ","), strings.Join(temps, ","), strings.Join(hums, ","))
	}))
}

func newTestPlanner(t *testing.T, sunriseURL, forecastURL string) *Planner {
	t.Helper()
	return New(
		WithSunriseBaseURL(sunriseURL),
		WithForecastBaseURL(forecastURL),
		WithNowFunc(fixedNow),
		WithNoCache(),
	)
}

func validRequest() Request {
	return Request{Latitude: 40.7128, Longitude: -74.006, WakeHour: 7, WakeMinute: 0, SleepHours: 8}
}

func TestPlan(t *testing.T) {
	sun := sunriseServer(t)
	defer sun.Close()
	fc := forecastServer(t)
	defer fc.Close()

	planner := newTestPlanner(t, sun.URL, fc.URL)
	plan, err := planner.Plan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	wantBedtime := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	if !plan.Window.Bedtime.Equal(wantBedtime) {
		t.Errorf("Bedtime = %v, want %v", plan.Window.Bedtime, wantBedtime)
	}
	if !plan.Window.BufferStart.Equal(wantBedtime.Add(-30 * time.Minute)) {
		t.Errorf("BufferStart = %v, want 22:30", plan.Window.BufferStart)
	}

	wantSunrise := time.Date(2025, 3, 11, 6, 12, 34, 0, time.UTC)
	if !plan.Sunrise.Equal(wantSunrise) {
		t.Errorf("Sunrise = %v, want %v", plan.Sunrise, wantSunrise)
	}

	// 23:00 through 07:00 inclusive is 9 hourly samples: one at 18°C/50%,
	// eight at 16°C/60%.
	if plan.Night.Count != 9 {
		t.Errorf("Night.Count = %d, want 9", plan.Night.Count)
	}
	if plan.Night.MaxTemp != 18 {
		t.Errorf("MaxTemp = %v, want 18", plan.Night.MaxTemp)
	}
	if plan.Night.MaxHumidity != 60 {
		t.Errorf("MaxHumidity = %v, want 60", plan.Night.MaxHumidity)
	}
	wantAvg := (18.0 + 8*16.0) / 9.0
	if math.Abs(plan.Night.AvgTemp-wantAvg) > 1e-9 {
		t.Errorf("AvgTemp = %v, want %v", plan.Night.AvgTemp, wantAvg)
	}

	if !strings.Contains(plan.Comfort, "reasonable for sleep") {
		t.Errorf("Comfort = %q, want base message for a mild night", plan.Comfort)
	}
}

func TestPlanInputValidation(t *testing.T) {
	// No servers: validation must fail before any network call.
	planner := New(WithNowFunc(fixedNow), WithNoCache(),
		WithSunriseBaseURL("http://127.0.0.1:0"), WithForecastBaseURL("http://127.0.0.1:0"))

	tests := []struct {
		name   string
		modify func(*Request)
	}{
		{"NaN latitude", func(r *Request) { r.Latitude = math.NaN() }},
		{"latitude out of range", func(r *Request) { r.Latitude = 95 }},
		{"Inf longitude", func(r *Request) { r.Longitude = math.Inf(-1) }},
		{"longitude out of range", func(r *Request) { r.Longitude = 181 }},
		{"zero sleep hours", func(r *Request) { r.SleepHours = 0 }},
		{"negative sleep hours", func(r *Request) { r.SleepHours = -2 }},
		{"bad wake hour", func(r *Request) { r.WakeHour = 24 }},
		{"bad wake minute", func(r *Request) { r.WakeMinute = 61 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)

			_, err := planner.Plan(context.Background(), req)
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Errorf("Plan() error = %v, want *InputError", err)
			}
		})
	}
}

func TestPlanSunriseFailure(t *testing.T) {
	sun := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":{},"status":"UNKNOWN_ERROR"}`))
	}))
	defer sun.Close()
	fc := forecastServer(t)
	defer fc.Close()

	planner := newTestPlanner(t, sun.URL, fc.URL)
	_, err := planner.Plan(context.Background(), validRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Plan() error = %v, want *APIError", err)
	}
	if apiErr.API != "sunrise" {
		t.Errorf("APIError.API = %q, want sunrise", apiErr.API)
	}
}

func TestPlanForecastFailure(t *testing.T) {
	sun := sunriseServer(t)
	defer sun.Close()
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer fc.Close()

	planner := newTestPlanner(t, sun.URL, fc.URL)
	_, err := planner.Plan(context.Background(), validRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Plan() error = %v, want *APIError", err)
	}
	if apiErr.API != "forecast" {
		t.Errorf("APIError.API = %q, want forecast", apiErr.API)
	}
}

func TestPlanNoDataInWindow(t *testing.T) {
	sun := sunriseServer(t)
	defer sun.Close()
	// Forecast responds, but with hours nowhere near the sleep window.
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2025-03-09T01:00","2025-03-09T02:00"],"temperature_2m":[10,11],"relative_humidity_2m":[40,41]}}`))
	}))
	defer fc.Close()

	planner := newTestPlanner(t, sun.URL, fc.URL)
	_, err := planner.Plan(context.Background(), validRequest())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Plan() error = %v, want ErrNoData", err)
	}
}

func TestPlanWarmHumidNight(t *testing.T) {
	sun := sunriseServer(t)
	defer sun.Close()
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"hourly":{"time":["2025-03-11T00:00","2025-03-11T01:00"],"temperature_2m":[27,28],"relative_humidity_2m":[85,90]}}`))
	}))
	defer fc.Close()

	planner := newTestPlanner(t, sun.URL, fc.URL)
	plan, err := planner.Plan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	if !strings.Contains(plan.Comfort, "warm night") {
		t.Errorf("Comfort = %q, want warm-night warning", plan.Comfort)
	}
	if !strings.Contains(plan.Comfort, "Humidity will be high") {
		t.Errorf("Comfort = %q, want humidity warning", plan.Comfort)
	}
}
