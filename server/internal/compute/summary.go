package compute

import (
	"fmt"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// BuildSummary derives the headline numbers from the last two fleet points
// and whole-dataset aggregates over ms.
//
// With a single fleet point, prev is the same point and both delta fields are
// exactly zero. An empty fleet returns ErrEmptyDataset.
func BuildSummary(fleet []types.FleetDailyPoint, ms []types.Measurement) (types.SummaryStats, error) {
	if len(fleet) == 0 {
		return types.SummaryStats{}, ErrEmptyDataset
	}

	last := fleet[len(fleet)-1]
	prev := last
	if len(fleet) > 1 {
		prev = fleet[len(fleet)-2]
	}

	minDate, maxDate := fleet[0].Date, last.Date
	days := make(map[string]struct{}, len(fleet))
	var confSum float64
	for _, m := range ms {
		days[m.Date] = struct{}{}
		confSum += m.Confidence
		if m.Date < minDate {
			minDate = m.Date
		}
		if m.Date > maxDate {
			maxDate = m.Date
		}
	}
	daysMonitored := len(days)
	if len(ms) == 0 {
		daysMonitored = len(fleet)
	}

	var avgConf float64
	if len(ms) > 0 {
		avgConf = roundTo(confSum/float64(len(ms)), 3)
	}

	return types.SummaryStats{
		LemonsToday:    last.Count,
		LemonsDelta:    last.Count - prev.Count,
		MedianDiameter: roundTo(last.Median, 2),
		DiameterDelta:  roundTo(last.Median-prev.Median, 2),
		DaysMonitored:  daysMonitored,
		DateRange:      fmt.Sprintf("%s → %s", minDate, maxDate),
		AvgConfidence:  avgConf,
		Measurements:   len(ms),
		LatestDate:     maxDate,
	}, nil
}
