package compute

import (
	"errors"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// View is the aggregated payload for one measurement snapshot.
type View struct {
	FleetDaily []types.FleetDailyPoint         `json:"fleet_daily"`
	LemonDaily map[int][]types.EntityDailyPoint `json:"lemon_daily"`
	LatestDist []float64                        `json:"latest_dist"`
	EntityIDs  []int                            `json:"entity_ids"`
	Summary    types.SummaryStats               `json:"summary"`
}

// summarize is BuildSummary; tests replace it.
var summarize = BuildSummary

// BuildView runs the fleet aggregator, the series builder, and the summary
// builder over ms. An empty ms produces empty collections and a zeroed
// summary rather than an error; any other summary failure is returned.
func BuildView(ms []types.Measurement) (View, error) {
	fleet := AggregateFleet(ms)
	series := BuildEntitySeries(ms)

	summary, err := summarize(fleet, ms)
	if err != nil && !errors.Is(err, ErrEmptyDataset) {
		return View{}, err
	}

	return View{
		FleetDaily: fleet,
		LemonDaily: series,
		LatestDist: latestDistribution(ms, summary.LatestDate),
		EntityIDs:  EntityIDs(series),
		Summary:    summary,
	}, nil
}

// latestDistribution returns the diameters measured on date, rounded to
// 3 decimals, in measurement order.
func latestDistribution(ms []types.Measurement, date string) []float64 {
	out := make([]float64, 0)
	if date == "" {
		return out
	}
	for _, m := range ms {
		if m.Date == date {
			out = append(out, roundTo(m.Diameter, 3))
		}
	}
	return out
}
