package compute

import (
	"time"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// Normalize drops every record whose confidence is below confidenceThreshold
// and tags the survivors with their calendar day. Input order is preserved.
//
// An empty input yields an empty, non-nil slice. A threshold outside [0, 1]
// returns an *InvalidThresholdError.
func Normalize(records []types.RawMeasurement, confidenceThreshold float64) ([]types.Measurement, error) {
	if err := checkConfidence(confidenceThreshold); err != nil {
		return nil, err
	}

	out := make([]types.Measurement, 0, len(records))
	for _, r := range records {
		// Written as a negated >= so a NaN confidence is dropped too.
		if !(r.Confidence >= confidenceThreshold) {
			continue
		}
		out = append(out, types.Measurement{RawMeasurement: r, Date: DateOf(r.Timestamp)})
	}
	return out, nil
}

// DateOf returns the calendar day of ts in ts's own location, as YYYY-MM-DD.
// No timezone conversion is applied.
func DateOf(ts time.Time) string {
	return ts.Format(types.DateLayout)
}
