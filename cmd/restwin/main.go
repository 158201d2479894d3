// Package main implements the restwin CLI for bedtime window planning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/restwin/restwin/pkg/restwin"
)

var (
	lat        = flag.Float64("lat", 360, "Latitude in decimal degrees (or set RESTWIN_LAT)")
	lon        = flag.Float64("lon", 360, "Longitude in decimal degrees (or set RESTWIN_LON)")
	wake       = flag.String("wake", "", "Desired wake time, 24-hour HH:MM")
	sleepHours = flag.Float64("hours", 8, "Desired sleep duration in hours (fractions allowed)")
	noCache    = flag.Bool("no-cache", false, "Disable API response caching")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("restwin CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Coordinates from environment when not provided as flags. 360 is the
	// "unset" marker since 0,0 is a valid (if damp) location.
	if *lat == 360 {
		if v, err := strconv.ParseFloat(os.Getenv("RESTWIN_LAT"), 64); err == nil {
			*lat = v
		}
	}
	if *lon == 360 {
		if v, err := strconv.ParseFloat(os.Getenv("RESTWIN_LON"), 64); err == nil {
			*lon = v
		}
	}

	if *lat == 360 || *lon == 360 || *wake == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -lat <deg> -lon <deg> -wake HH:MM [-hours N]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	wakeHour, wakeMinute, err := parseWake(*wake)
	if err != nil {
		logger.Error("invalid wake time", "wake", *wake, "error", err)
		os.Exit(1)
	}

	opts := []restwin.Option{}
	if *noCache {
		opts = append(opts, restwin.WithNoCache())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	planner := restwin.NewWithLogger(logger, opts...)
	plan, err := planner.Plan(ctx, restwin.Request{
		Latitude:   *lat,
		Longitude:  *lon,
		WakeHour:   wakeHour,
		WakeMinute: wakeMinute,
		SleepHours: *sleepHours,
	})
	if err != nil {
		logger.Error("planning failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printPlan(plan, *sleepHours)
}

func parseWake(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad hour %q: %w", parts[0], err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minute %q: %w", parts[1], err)
	}
	return hour, minute, nil
}

func printPlan(plan *restwin.Plan, sleepHours float64) {
	fmt.Printf("\n🛏️  Bedtime Plan\n")
	fmt.Println(strings.Repeat("─", 50))

	fmt.Printf("🌙 Go to bed:     %s → %s\n", clock(plan.Window.BufferStart), clock(plan.Window.Bedtime))
	fmt.Printf("😴 Sleep window:  %s → %s\n", clock(plan.Window.Bedtime), clock(plan.Window.Wake))
	fmt.Printf("🌅 Sunrise:       %s\n", clock(plan.Sunrise.In(plan.Window.Wake.Location())))
	fmt.Printf("⏱️  Duration:      %.1f hours\n", sleepHours)
	fmt.Printf("🌡️  Overnight:     avg %.1f°C, %.0f%% humidity\n", plan.Night.AvgTemp, plan.Night.AvgHumidity)

	note := plan.Comfort
	if strings.Contains(note, "warm night") || strings.Contains(note, "Humidity will be high") {
		note = color.YellowString(note)
	}
	fmt.Printf("\n%s\n\n", note)
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
