package compute

import (
	"cmp"
	"math"
	"slices"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// DetectAnomalies scans each lemon's daily series and reports every pair of
// adjacent days whose median changed by at least threshold.
//
// Lemons are scanned in ascending id order and days in ascending date order.
// The result is sorted by |delta| descending; equal magnitudes keep that scan
// order. Deltas are taken between the 3-decimal medians and reported rounded
// to 3 decimals, and the threshold is compared against the reported value.
//
// A negative, NaN, or infinite threshold returns an *InvalidThresholdError.
func DetectAnomalies(series map[int][]types.EntityDailyPoint, threshold float64) ([]types.AnomalyEvent, error) {
	if err := checkAnomaly(threshold); err != nil {
		return nil, err
	}

	out := make([]types.AnomalyEvent, 0)
	for _, id := range EntityIDs(series) {
		pts := series[id]
		for i := 1; i < len(pts); i++ {
			delta := roundTo(pts[i].Median-pts[i-1].Median, 3)
			if math.Abs(delta) < threshold {
				continue
			}
			kind := types.AnomalySpike
			if delta < 0 {
				kind = types.AnomalyDrop
			}
			out = append(out, types.AnomalyEvent{
				EntityID:     id,
				Date:         pts[i].Date,
				Diameter:     roundTo(pts[i].Median, 3),
				PrevDiameter: roundTo(pts[i-1].Median, 3),
				Delta:        delta,
				Kind:         kind,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b types.AnomalyEvent) int {
		return cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta))
	})
	return out, nil
}

// Anomalies runs the series builder and the detector over ms.
func Anomalies(ms []types.Measurement, threshold float64) ([]types.AnomalyEvent, error) {
	return DetectAnomalies(BuildEntitySeries(ms), threshold)
}
