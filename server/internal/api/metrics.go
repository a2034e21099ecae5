package api

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/compute"
)

const metricPrefix = "lemonwatch_"

// metrics returns GET /metrics — gauges describing the latest view, computed
// from a fresh snapshot on every scrape.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r, true)
	if !ok {
		return
	}
	s, err := h.load(r.Context(), opts.ConfidenceThreshold)
	if err != nil {
		h.pipelineErr(w, r, err)
		return
	}
	events, err := compute.Anomalies(s.kept, opts.AnomalyThreshold)
	if err != nil {
		h.pipelineErr(w, r, err)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	w.WriteHeader(http.StatusOK)

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range metricFamilies(s, compute.AggregateFleet(s.kept), events) {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

// metricFamilies renders one snapshot as gauge families. Fleet gauges
// describe the latest date and are omitted when nothing survived filtering.
func metricFamilies(s snapshot, fleet []types.FleetDailyPoint, events []types.AnomalyEvent) []*dto.MetricFamily {
	var spikes, drops float64
	for _, e := range events {
		if e.Kind == types.AnomalySpike {
			spikes++
		} else {
			drops++
		}
	}

	synthetic := 0.0
	if s.Synthetic {
		synthetic = 1
	}

	out := []*dto.MetricFamily{
		gauge("measurements", "Raw measurements by filter outcome.",
			labelled(float64(len(s.kept)), "state", "kept"),
			labelled(float64(len(s.Records)-len(s.kept)), "state", "filtered"),
		),
		gauge("anomalies", "Day-over-day median changes at or above the anomaly threshold.",
			labelled(spikes, "kind", string(types.AnomalySpike)),
			labelled(drops, "kind", string(types.AnomalyDrop)),
		),
		gauge("source_synthetic", "1 when the view is served from generated data.",
			labelled(synthetic, "source", s.Source),
		),
		gauge("days_monitored", "Distinct dates with at least one kept measurement.",
			plain(float64(len(fleet))),
		),
	}

	if len(fleet) > 0 {
		last := fleet[len(fleet)-1]
		out = append(out,
			gauge("lemons_today", "Distinct lemons measured on the latest date.", plain(float64(last.Count))),
			gauge("fleet_median_diameter_cm", "Fleet median diameter on the latest date.", plain(last.Median)),
			gauge("fleet_q25_diameter_cm", "Fleet 25th percentile diameter on the latest date.", plain(last.Q25)),
			gauge("fleet_q75_diameter_cm", "Fleet 75th percentile diameter on the latest date.", plain(last.Q75)),
		)
	}
	return out
}

func gauge(name, help string, ms ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(metricPrefix + name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: ms,
	}
}

func plain(v float64) *dto.Metric {
	return &dto.Metric{Gauge: &dto.Gauge{Value: ptr(v)}}
}

func labelled(v float64, name, value string) *dto.Metric {
	m := plain(v)
	m.Label = []*dto.LabelPair{{Name: ptr(name), Value: ptr(value)}}
	return m
}

func ptr[T any](v T) *T { return &v }
