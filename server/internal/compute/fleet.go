package compute

import (
	"slices"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// AggregateFleet groups measurements by date and returns one point per date,
// ascending. Count is the number of distinct lemons measured that day, so
// several intraday samples of one lemon count once.
func AggregateFleet(ms []types.Measurement) []types.FleetDailyPoint {
	dates, byDate := groupBy(ms, func(m types.Measurement) string { return m.Date })
	slices.Sort(dates)

	out := make([]types.FleetDailyPoint, 0, len(dates))
	for _, date := range dates {
		group := byDate[date]
		diams := make([]float64, len(group))
		lemons := make(map[int]struct{}, len(group))
		for i, m := range group {
			diams[i] = m.Diameter
			lemons[m.EntityID] = struct{}{}
		}
		slices.Sort(diams)

		out = append(out, types.FleetDailyPoint{
			Date:   date,
			Median: quantile(diams, 0.5),
			Q25:    quantile(diams, 0.25),
			Q75:    quantile(diams, 0.75),
			Count:  len(lemons),
		})
	}
	return out
}
