package compute

import (
	"math"
	"time"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// day0 is a fixed reference date so every fixture is deterministic.
var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// at returns day0 advanced by d days and h hours.
func at(d, h int) time.Time {
	return day0.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour)
}

// raw builds a RawMeasurement on day d at hour h.
func raw(id, d, h int, diam, conf float64) types.RawMeasurement {
	return types.RawMeasurement{Timestamp: at(d, h), EntityID: id, Diameter: diam, Confidence: conf}
}

// meas builds an already-normalized Measurement on day d.
func meas(id, d int, diam float64) types.Measurement {
	r := raw(id, d, 12, diam, 0.9)
	return types.Measurement{RawMeasurement: r, Date: DateOf(r.Timestamp)}
}

// dateOf returns the YYYY-MM-DD string for day d.
func dateOf(d int) string {
	return at(d, 0).Format(types.DateLayout)
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
