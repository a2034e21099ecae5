package compute

import (
	"slices"
	"strings"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// lemonDay identifies one lemon on one calendar day.
type lemonDay struct {
	id   int
	date string
}

// BuildEntitySeries returns, for every lemon, its median diameter per day
// rounded to 3 decimals and ordered by ascending date. The result does not
// depend on the order of ms.
func BuildEntitySeries(ms []types.Measurement) map[int][]types.EntityDailyPoint {
	keys, groups := groupBy(ms, func(m types.Measurement) lemonDay {
		return lemonDay{id: m.EntityID, date: m.Date}
	})

	out := make(map[int][]types.EntityDailyPoint)
	for _, k := range keys {
		group := groups[k]
		diams := make([]float64, len(group))
		for i, m := range group {
			diams[i] = m.Diameter
		}
		out[k.id] = append(out[k.id], types.EntityDailyPoint{
			EntityID: k.id,
			Date:     k.date,
			Median:   roundTo(median(diams), 3),
		})
	}

	for _, pts := range out {
		slices.SortFunc(pts, func(a, b types.EntityDailyPoint) int {
			return strings.Compare(a.Date, b.Date)
		})
	}
	return out
}

// EntityIDs returns the keys of series in ascending order.
func EntityIDs(series map[int][]types.EntityDailyPoint) []int {
	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
