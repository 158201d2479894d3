// Package window computes bedtime and sleep windows from a wake time.
package window

import (
	"fmt"
	"math"
	"time"
)

// BedtimeBuffer is how far before bedtime the recommended window opens.
const BedtimeBuffer = 30 * time.Minute

// Window is a sleep window anchored on a wake instant.
type Window struct {
	BufferStart time.Time // "go to bed between BufferStart and Bedtime"
	Bedtime     time.Time
	Wake        time.Time
}

// SleepDuration reports the length of the window.
func (w Window) SleepDuration() time.Duration {
	return w.Wake.Sub(w.Bedtime)
}

// Compute derives the sleep window for waking at (wakeHour, wakeMinute) on
// the calendar day after now, after sleepHours of sleep. Fractional hours are
// allowed. Bedtime is exactly wake minus sleepHours; BufferStart is exactly
// 30 minutes before bedtime.
func Compute(now time.Time, wakeHour, wakeMinute int, sleepHours float64) (Window, error) {
	if wakeHour < 0 || wakeHour > 23 {
		return Window{}, fmt.Errorf("wake hour %d out of range [0,23]", wakeHour)
	}
	if wakeMinute < 0 || wakeMinute > 59 {
		return Window{}, fmt.Errorf("wake minute %d out of range [0,59]", wakeMinute)
	}
	if math.IsNaN(sleepHours) || math.IsInf(sleepHours, 0) || sleepHours <= 0 {
		return Window{}, fmt.Errorf("sleep hours must be a positive finite number, got %v", sleepHours)
	}

	next := now.AddDate(0, 0, 1)
	wake := time.Date(next.Year(), next.Month(), next.Day(), wakeHour, wakeMinute, 0, 0, now.Location())

	// time.Duration is int64 nanoseconds, so fractional hours survive exactly
	// for any realistic sleepHours value.
	sleep := time.Duration(sleepHours * float64(time.Hour))
	bedtime := wake.Add(-sleep)

	return Window{
		BufferStart: bedtime.Add(-BedtimeBuffer),
		Bedtime:     bedtime,
		Wake:        wake,
	}, nil
}
