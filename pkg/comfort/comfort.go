// Package comfort classifies overnight conditions into a human-readable note.
package comfort

import (
	"fmt"

	"github.com/restwin/restwin/pkg/night"
)

// Fixed thresholds; both rules are checked independently and their messages
// concatenate, warm first.
const (
	WarmAvgTemp = 24.0 // °C
	WarmMaxTemp = 26.0 // °C
	HumidAvg    = 70.0 // %
	HumidMax    = 80.0 // %
)

const baseNote = "Conditions look reasonable for sleep."

// Classify maps aggregated overnight stats to a comfort note.
func Classify(s night.Stats) string {
	note := baseNote
	if s.AvgTemp > WarmAvgTemp || s.MaxTemp > WarmMaxTemp {
		note = fmt.Sprintf("It may be a warm night (avg %.1f°C, peaking at %.1f°C); consider extra ventilation or lighter bedding.", s.AvgTemp, s.MaxTemp)
	}
	if s.AvgHumidity > HumidAvg || s.MaxHumidity > HumidMax {
		note += " Humidity will be high overnight, which can make the room feel sticky."
	}
	return note
}
