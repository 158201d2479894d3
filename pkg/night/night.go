// Package night reduces hourly weather samples to an overnight summary.
package night

import "time"

// Sample is one timestamped weather observation from the forecast API.
type Sample struct {
	Time        time.Time
	Temperature float64 // °C
	Humidity    float64 // relative, 0-100
}

// Stats summarizes the samples that fell inside a sleep window.
type Stats struct {
	AvgTemp     float64
	AvgHumidity float64
	MaxTemp     float64
	MaxHumidity float64
	Count       int
}

// Aggregate filters samples to start <= t <= end (inclusive on both ends) and
// reduces them to average and maximum temperature and humidity. It returns
// nil when no sample falls inside the window; the caller must surface that as
// a no-data condition rather than rendering partial results. Duplicate
// timestamps both count, and the result does not depend on sample order.
func Aggregate(samples []Sample, start, end time.Time) *Stats {
	var count int
	var sumTemp, sumHum float64
	var maxTemp, maxHum float64

	for _, s := range samples {
		if s.Time.Before(start) || s.Time.After(end) {
			continue
		}
		if count == 0 || s.Temperature > maxTemp {
			maxTemp = s.Temperature
		}
		if count == 0 || s.Humidity > maxHum {
			maxHum = s.Humidity
		}
		sumTemp += s.Temperature
		sumHum += s.Humidity
		count++
	}

	if count == 0 {
		return nil
	}

	return &Stats{
		AvgTemp:     sumTemp / float64(count),
		AvgHumidity: sumHum / float64(count),
		MaxTemp:     maxTemp,
		MaxHumidity: maxHum,
		Count:       count,
	}
}
