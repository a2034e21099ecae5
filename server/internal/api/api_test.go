package api_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/api"
	"github.com/lemonwatch/lemonwatch/server/internal/compute"
	"github.com/lemonwatch/lemonwatch/server/internal/source"
)

// --- test helpers -----------------------------------------------------------

type fakeLoader struct {
	snap source.Snapshot
	err  error
}

func (f *fakeLoader) Load(context.Context) (source.Snapshot, error) {
	return f.snap, f.err
}

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func raw(id, day int, diam, conf float64) types.RawMeasurement {
	return types.RawMeasurement{
		Timestamp:  day0.AddDate(0, 0, day).Add(8 * time.Hour),
		EntityID:   id,
		Diameter:   diam,
		Confidence: conf,
	}
}

// fixture: lemon 1 grows 5 → 6 → 9 cm over three days, lemon 2 is flat,
// and one low-confidence reading on day 2 is filtered at the default 0.70.
func fixture() []types.RawMeasurement {
	return []types.RawMeasurement{
		raw(1, 0, 5.0, 0.9),
		raw(2, 0, 4.0, 0.9),
		raw(1, 1, 6.0, 0.9),
		raw(2, 1, 4.1, 0.8),
		raw(1, 2, 9.0, 0.9),
		raw(2, 2, 4.2, 0.9),
		raw(2, 2, 12.0, 0.4),
	}
}

func newHandler(recs []types.RawMeasurement) *api.Handler {
	return api.New(&fakeLoader{snap: source.Snapshot{Records: recs, Source: "csv:test.csv"}}, compute.DefaultOptions())
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/data --------------------------------------------------------------

func TestData_Payload(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/data")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp api.DataResponse
	decode(t, rr, &resp)

	if resp.Meta.Source != "csv:test.csv" || resp.Meta.Synthetic {
		t.Errorf("_meta source = %q synthetic = %v", resp.Meta.Source, resp.Meta.Synthetic)
	}
	if resp.Meta.RowsRaw != 7 || resp.Meta.RowsKept != 6 || resp.Meta.Filtered != 1 {
		t.Errorf("_meta rows = %d/%d/%d, want 7/6/1", resp.Meta.RowsRaw, resp.Meta.RowsKept, resp.Meta.Filtered)
	}
	if _, err := time.Parse(time.RFC3339, resp.Meta.Generated); err != nil {
		t.Errorf("_meta generated = %q: %v", resp.Meta.Generated, err)
	}
	if len(resp.FleetDaily) != 3 {
		t.Errorf("len(fleet_daily) = %d, want 3", len(resp.FleetDaily))
	}
	if len(resp.EntityIDs) != 2 || resp.EntityIDs[0] != 1 || resp.EntityIDs[1] != 2 {
		t.Errorf("entity_ids = %v, want [1 2]", resp.EntityIDs)
	}
	if resp.Summary.LatestDate != "2024-03-03" {
		t.Errorf("summary.latest_date = %q, want 2024-03-03", resp.Summary.LatestDate)
	}
	// The filtered 12 cm reading must not reach the latest distribution.
	if len(resp.LatestDist) != 2 {
		t.Errorf("latest_dist = %v, want two values", resp.LatestDist)
	}
}

func TestData_RawKeys(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/data")
	var resp map[string]any
	decode(t, rr, &resp)

	for _, k := range []string{"fleet_daily", "lemon_daily", "latest_dist", "entity_ids", "summary", "_meta"} {
		if _, ok := resp[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
}

func TestData_ConfidenceOverride(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/data?confidence=0.2")
	var resp api.DataResponse
	decode(t, rr, &resp)

	if resp.Meta.Filtered != 0 {
		t.Errorf("filtered = %d, want 0 at confidence 0.2", resp.Meta.Filtered)
	}
}

func TestData_EverythingFiltered(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/data?confidence=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]any
	decode(t, rr, &resp)

	if fd, ok := resp["fleet_daily"].([]any); !ok || len(fd) != 0 {
		t.Errorf("fleet_daily = %v, want []", resp["fleet_daily"])
	}
	summary := resp["summary"].(map[string]any)
	if summary["lemons_today"].(float64) != 0 {
		t.Errorf("summary.lemons_today = %v, want 0", summary["lemons_today"])
	}
}

func TestData_BadParameters(t *testing.T) {
	h := newHandler(fixture())
	for _, path := range []string{
		"/api/data?confidence=abc",
		"/api/data?confidence=1.5",
		"/api/data?confidence=-0.1",
		"/api/data?confidence=NaN",
	} {
		if rr := get(t, h, path); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, rr.Code)
		}
	}
}

func TestData_SourceErrorHidesDetail(t *testing.T) {
	h := api.New(&fakeLoader{err: errors.New("csv: open /srv/private/lemons.csv: permission denied")}, compute.DefaultOptions())
	rr := get(t, h, "/api/data")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] == "" {
		t.Error("error message is empty")
	}
	if strings.Contains(resp["error"], "/srv/private") || strings.Contains(resp["error"], "permission") {
		t.Errorf("error = %q leaks the source error", resp["error"])
	}
}

func TestThresholdIgnoredOutsideAnomalyEndpoints(t *testing.T) {
	h := newHandler(fixture())
	for _, path := range []string{
		"/api/data?threshold=-1",
		"/api/status?threshold=x",
		"/api/download?threshold=-5",
	} {
		if rr := get(t, h, path); rr.Code != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, rr.Code)
		}
	}
	for _, path := range []string{"/api/anomalies?threshold=-1", "/metrics?threshold=x"} {
		if rr := get(t, h, path); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, rr.Code)
		}
	}
}

func TestData_Synthetic(t *testing.T) {
	h := api.New(&fakeLoader{snap: source.Snapshot{
		Records: fixture(), Source: source.SyntheticName, Synthetic: true,
	}}, compute.DefaultOptions())

	var resp api.DataResponse
	decode(t, get(t, h, "/api/data"), &resp)
	if resp.Meta.Source != "mock" || !resp.Meta.Synthetic {
		t.Errorf("_meta = %+v, want source mock, synthetic", resp.Meta)
	}
}

func TestSetOptions(t *testing.T) {
	h := newHandler(fixture())
	h.SetOptions(compute.Options{ConfidenceThreshold: 0.3, AnomalyThreshold: 1.5})

	var resp api.DataResponse
	decode(t, get(t, h, "/api/data"), &resp)
	if resp.Meta.Filtered != 0 {
		t.Errorf("filtered = %d, want 0 after SetOptions", resp.Meta.Filtered)
	}
	if got := h.Options().ConfidenceThreshold; got != 0.3 {
		t.Errorf("Options().ConfidenceThreshold = %v, want 0.3", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(fixture())
	for _, path := range []string{"/api/data", "/api/anomalies", "/api/download", "/api/status", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: status %d, want 405", path, rr.Code)
		}
	}
}

// --- /api/anomalies ---------------------------------------------------------

func TestAnomalies_Default(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/anomalies")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.AnomaliesResponse
	decode(t, rr, &resp)

	if resp.Threshold != 1.5 || resp.Total != 1 || len(resp.Anomalies) != 1 {
		t.Fatalf("resp = %+v, want one anomaly at threshold 1.5", resp)
	}
	a := resp.Anomalies[0]
	if a.EntityID != 1 || a.Date != "2024-03-03" || a.Delta != 3 || a.Kind != types.AnomalySpike {
		t.Errorf("anomaly = %+v", a)
	}
}

func TestAnomalies_Threshold(t *testing.T) {
	var resp api.AnomaliesResponse
	decode(t, get(t, newHandler(fixture()), "/api/anomalies?threshold=1"), &resp)

	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if resp.Anomalies[0].Delta != 3 || resp.Anomalies[1].Delta != 1 {
		t.Errorf("deltas = %v, %v; want 3, 1 (descending magnitude)", resp.Anomalies[0].Delta, resp.Anomalies[1].Delta)
	}
}

func TestAnomalies_EmptyIsArray(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/anomalies?threshold=50")
	var resp map[string]any
	decode(t, rr, &resp)
	if a, ok := resp["anomalies"].([]any); !ok || len(a) != 0 {
		t.Errorf("anomalies = %v, want []", resp["anomalies"])
	}
}

func TestAnomalies_InvalidThreshold(t *testing.T) {
	h := newHandler(fixture())
	for _, q := range []string{"-1", "x", "NaN", "Inf"} {
		if rr := get(t, h, "/api/anomalies?threshold="+q); rr.Code != http.StatusBadRequest {
			t.Errorf("threshold=%s: status %d, want 400", q, rr.Code)
		}
	}
}

// --- /api/download ----------------------------------------------------------

func TestDownload(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/api/download")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, api.ExportFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if got := strings.Join(rows[0], ","); got != "timestamp,entity_id,diameter,confidence,date" {
		t.Errorf("header = %q", got)
	}
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want header + 6", len(rows))
	}
	if want := []string{"2024-03-01 08:00:00", "1", "5", "0.9", "2024-03-01"}; strings.Join(rows[1], ",") != strings.Join(want, ",") {
		t.Errorf("first row = %v, want %v", rows[1], want)
	}
}

// --- /api/status ------------------------------------------------------------

func TestStatus(t *testing.T) {
	var resp api.StatusResponse
	decode(t, get(t, newHandler(fixture()), "/api/status"), &resp)

	if !resp.OK || resp.Source != "csv:test.csv" || resp.TotalRows != 6 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.LatestDate == nil || *resp.LatestDate != "2024-03-03" {
		t.Errorf("latest_date = %v, want 2024-03-03", resp.LatestDate)
	}
	if _, err := time.Parse(time.RFC3339, resp.ServerTime); err != nil {
		t.Errorf("server_time = %q: %v", resp.ServerTime, err)
	}
}

func TestStatus_EmptyLatestDateIsNull(t *testing.T) {
	rr := get(t, newHandler(nil), "/api/status")
	var resp map[string]any
	decode(t, rr, &resp)

	v, ok := resp["latest_date"]
	if !ok || v != nil {
		t.Errorf("latest_date = %v (present %v), want null", v, ok)
	}
}

// --- /metrics ---------------------------------------------------------------

func TestMetrics_ParsesAsPrometheusText(t *testing.T) {
	rr := get(t, newHandler(fixture()), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse metrics: %v", err)
	}

	if v := gaugeValue(t, families, "lemonwatch_lemons_today", ""); v != 2 {
		t.Errorf("lemons_today = %v, want 2", v)
	}
	if v := gaugeValue(t, families, "lemonwatch_measurements", "filtered"); v != 1 {
		t.Errorf("measurements{state=filtered} = %v, want 1", v)
	}
	if v := gaugeValue(t, families, "lemonwatch_anomalies", "spike"); v != 1 {
		t.Errorf("anomalies{kind=spike} = %v, want 1", v)
	}
	for name, want := range map[string]float64{
		"lemonwatch_fleet_median_diameter_cm": 6.6,
		"lemonwatch_fleet_q25_diameter_cm":    5.4,
		"lemonwatch_fleet_q75_diameter_cm":    7.8,
	} {
		if v := gaugeValue(t, families, name, ""); math.Abs(v-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, v, want)
		}
	}
	// "quantile" is reserved for summaries and histograms.
	for name, mf := range families {
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "quantile" {
					t.Errorf("gauge %s carries a quantile label", name)
				}
			}
		}
	}
	if v := gaugeValue(t, families, "lemonwatch_source_synthetic", "csv:test.csv"); v != 0 {
		t.Errorf("source_synthetic = %v, want 0", v)
	}
}

func TestMetrics_EmptyOmitsFleetGauges(t *testing.T) {
	rr := get(t, newHandler(nil), "/metrics")
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse metrics: %v", err)
	}
	if _, ok := families["lemonwatch_lemons_today"]; ok {
		t.Error("lemons_today present for an empty data set")
	}
	if _, ok := families["lemonwatch_days_monitored"]; !ok {
		t.Error("days_monitored missing")
	}
}

// gaugeValue returns the value of the series in family name whose single
// label has value label, or the unlabelled series when label is "".
func gaugeValue(t *testing.T, families map[string]*dto.MetricFamily, name, label string) float64 {
	t.Helper()
	mf, ok := families[name]
	if !ok {
		t.Fatalf("family %s missing", name)
	}
	for _, m := range mf.GetMetric() {
		if label == "" && len(m.GetLabel()) == 0 {
			return m.GetGauge().GetValue()
		}
		for _, lp := range m.GetLabel() {
			if lp.GetValue() == label {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("family %s has no series labelled %q", name, label)
	return 0
}
