// Package main implements the restwin web server: a single-page bedtime
// planner form backed by a JSON API.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/restwin/restwin/pkg/restwin"
)

//go:embed templates/home.html
var homeTemplate string

//go:embed static/*
var staticFiles embed.FS

var (
	port    = flag.String("port", "8080", "Port for web server")
	noCache = flag.Bool("no-cache", false, "Disable API response caching")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	version = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 20 requests per minute per IP
	if len(valid) >= 20 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("restwin Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	logger.Info("Server configuration", "port", *port, "verbose", *verbose, "api_cache", !*noCache)

	plannerOpts := []restwin.Option{}
	if *noCache {
		plannerOpts = append(plannerOpts, restwin.WithNoCache())
	}
	planner := restwin.NewWithLogger(logger, plannerOpts...)

	cache := otter.Must(&otter.Options[string, []byte]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](15 * time.Minute),
	})

	server := &server{
		planner: planner,
		cache:   cache,
		limiter: newRateLimiter(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handleHome)
	mux.HandleFunc("POST /api/v1/plan", server.handlePlan)
	mux.Handle("/static/", http.FileServer(http.FS(staticFiles)))

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           server.wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

type server struct {
	planner *restwin.Planner
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	logger  *slog.Logger
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// The page itself asks for geolocation; allow it for same origin only.
		w.Header().Set("Permissions-Policy", "geolocation=(self), microphone=(), camera=()")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; connect-src 'self'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		} else if strings.HasPrefix(r.URL.Path, "/static/") {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tmpl, err := template.New("home").Parse(homeTemplate)
	if err != nil {
		s.logger.Error("Template parsing failed", "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	if err := tmpl.Execute(w, nil); err != nil {
		s.logger.Error("Template execution failed", "error", err)
	}
}

// planResponse carries display-ready strings so the page never needs to
// re-derive formatting rules (12-hour clock with a non-breaking space before
// AM/PM, one decimal for temperature, whole percent for humidity).
type planResponse struct {
	BedWindowStart string `json:"bed_window_start"`
	BedWindowEnd   string `json:"bed_window_end"`
	SleepStart     string `json:"sleep_start"`
	SleepEnd       string `json:"sleep_end"`
	Sunrise        string `json:"sunrise"`
	Duration       string `json:"duration"`
	AvgTemp        string `json:"avg_temp"`
	AvgHumidity    string `json:"avg_humidity"`
	Comfort        string `json:"comfort"`
}

func (s *server) handlePlan(writer http.ResponseWriter, request *http.Request) {
	start := time.Now()
	clientIP := strings.Split(request.RemoteAddr, ":")[0]
	requestID := writer.Header().Get("X-Request-ID")

	s.logger.Info("Plan request started", "request_id", requestID, "client_ip", clientIP)

	if !s.limiter.allow(clientIP) {
		s.logger.Error("Rate limit exceeded", "request_id", requestID, "client_ip", clientIP)
		http.Error(writer, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req restwin.Request
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		s.logger.Error("Invalid request body", "request_id", requestID, "error", err)
		writeError(writer, http.StatusBadRequest, "Invalid request")
		return
	}

	cacheKey := fmt.Sprintf("plan:%.4f:%.4f:%02d:%02d:%.2f",
		req.Latitude, req.Longitude, req.WakeHour, req.WakeMinute, req.SleepHours)
	if data, found := s.cache.GetIfPresent(cacheKey); found {
		writer.Header().Set("Content-Type", "application/json")
		writer.Header().Set("X-Cache", "hit")
		writer.Write(data)
		s.logger.Info("Plan request completed (cache)", "request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	plan, err := s.planner.Plan(request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var inputErr *restwin.InputError
		switch {
		case errors.As(err, &inputErr):
			status = http.StatusBadRequest
		case errors.Is(err, restwin.ErrNoData):
			status = http.StatusNotFound
		}
		s.logger.Error("Planning failed", "request_id", requestID, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		writeError(writer, status, err.Error())
		return
	}

	loc := plan.Window.Wake.Location()
	resp := planResponse{
		BedWindowStart: clock(plan.Window.BufferStart),
		BedWindowEnd:   clock(plan.Window.Bedtime),
		SleepStart:     clock(plan.Window.Bedtime),
		SleepEnd:       clock(plan.Window.Wake),
		Sunrise:        clock(plan.Sunrise.In(loc)),
		Duration:       fmt.Sprintf("%.1f hours", req.SleepHours),
		AvgTemp:        fmt.Sprintf("%.1f°C", plan.Night.AvgTemp),
		AvgHumidity:    fmt.Sprintf("%.0f%%", plan.Night.AvgHumidity),
		Comfort:        plan.Comfort,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Response encoding failed", "request_id", requestID, "error", err)
		writeError(writer, http.StatusInternalServerError, "Internal error")
		return
	}

	s.cache.Set(cacheKey, data)
	writer.Header().Set("Content-Type", "application/json")
	writer.Write(data)

	s.logger.Info("Plan request completed", "request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// clock formats a time on the 12-hour clock with a non-breaking space before
// the AM/PM marker.
func clock(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	marker := "AM"
	if t.Hour() >= 12 {
		marker = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), marker)
}
