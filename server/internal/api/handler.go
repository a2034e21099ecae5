package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/compute"
	"github.com/lemonwatch/lemonwatch/server/internal/source"
)

// Loader yields one snapshot of raw measurements. *source.Chain implements it.
type Loader interface {
	Load(ctx context.Context) (source.Snapshot, error)
}

// Handler is the HTTP handler for the /api/* endpoints and /metrics.
type Handler struct {
	loader Loader
	opts   atomic.Pointer[compute.Options]
	mux    *http.ServeMux

	// now is replaced in tests.
	now func() time.Time
}

// New creates a Handler reading from loader with opts as the default
// thresholds, and registers all routes.
func New(loader Loader, opts compute.Options) *Handler {
	h := &Handler{loader: loader, mux: http.NewServeMux(), now: time.Now}
	h.opts.Store(&opts)

	h.mux.HandleFunc("/api/data", h.data)
	h.mux.HandleFunc("/api/anomalies", h.anomalies)
	h.mux.HandleFunc("/api/download", h.download)
	h.mux.HandleFunc("/api/status", h.status)
	h.mux.HandleFunc("/metrics", h.metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Options returns the current default thresholds.
func (h *Handler) Options() compute.Options {
	return *h.opts.Load()
}

// SetOptions replaces the default thresholds. In-flight requests keep the
// copy they started with.
func (h *Handler) SetOptions(opts compute.Options) {
	h.opts.Store(&opts)
}

// snapshot is one pass of the pipeline: the raw source read and the records
// that survived the confidence filter.
type snapshot struct {
	source.Snapshot
	kept []types.Measurement
}

func (h *Handler) load(ctx context.Context, confidence float64) (snapshot, error) {
	snap, err := h.loader.Load(ctx)
	if err != nil {
		return snapshot{}, err
	}
	kept, err := compute.Normalize(snap.Records, confidence)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{Snapshot: snap, kept: kept}, nil
}

// BuildData runs the full pipeline once and returns the aggregated view.
func (h *Handler) BuildData(ctx context.Context, opts compute.Options) (DataResponse, error) {
	s, err := h.load(ctx, opts.ConfidenceThreshold)
	if err != nil {
		return DataResponse{}, err
	}
	view, err := compute.BuildView(s.kept)
	if err != nil {
		return DataResponse{}, err
	}
	return DataResponse{
		View: view,
		Meta: Meta{
			Source:    s.Source,
			Synthetic: s.Synthetic,
			Generated: h.now().UTC().Format(time.RFC3339),
			RowsRaw:   len(s.Records),
			RowsKept:  len(s.kept),
			Filtered:  len(s.Records) - len(s.kept),
		},
	}, nil
}

// --- route handlers ---------------------------------------------------------

// data returns GET /api/data — the aggregated view.
func (h *Handler) data(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r, false)
	if !ok {
		return
	}
	resp, err := h.BuildData(r.Context(), opts)
	if err != nil {
		h.pipelineErr(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, resp)
}

// anomalies returns GET /api/anomalies — spikes and drops sorted by
// magnitude.
func (h *Handler) anomalies(w http.ResponseWriter, r *http.Request) {
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
	jsonResp(w, http.StatusOK, AnomaliesResponse{
		Anomalies: events,
		Threshold: opts.AnomalyThreshold,
		Total:     len(events),
	})
}

// status returns GET /api/status — a liveness summary of the data source.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r, false)
	if !ok {
		return
	}
	s, err := h.load(r.Context(), opts.ConfidenceThreshold)
	if err != nil {
		h.pipelineErr(w, r, err)
		return
	}
	jsonResp(w, http.StatusOK, StatusResponse{
		OK:         true,
		Source:     s.Source,
		Synthetic:  s.Synthetic,
		LatestDate: latestDate(s.kept),
		TotalRows:  len(s.kept),
		ServerTime: h.now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

// floatParam binds a query parameter to an Options field.
type floatParam struct {
	name string
	dst  *float64
}

// requestOptions enforces GET and overlays the ?confidence= query parameter
// on the configured defaults, and ?threshold= too when withThreshold is set.
// Endpoints that never detect anomalies ignore ?threshold=. On failure the
// error response has already been written.
func (h *Handler) requestOptions(w http.ResponseWriter, r *http.Request, withThreshold bool) (compute.Options, bool) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return compute.Options{}, false
	}

	opts := h.Options()
	q := r.URL.Query()
	params := []floatParam{{"confidence", &opts.ConfidenceThreshold}}
	if withThreshold {
		params = append(params, floatParam{"threshold", &opts.AnomalyThreshold})
	}
	for _, p := range params {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("%s: %q is not a number", p.name, raw))
			return compute.Options{}, false
		}
		*p.dst = v
	}

	if err := opts.Validate(); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return compute.Options{}, false
	}
	return opts, true
}

// sourceFailedMsg is the client-facing body of a 502. The underlying error
// can carry file paths and driver messages, so it is only logged.
const sourceFailedMsg = "failed to read measurement source"

// pipelineErr maps a pipeline error to a status code: threshold errors are
// the caller's fault, everything else is the source's.
func (h *Handler) pipelineErr(w http.ResponseWriter, r *http.Request, err error) {
	var te *compute.InvalidThresholdError
	if errors.As(err, &te) {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("api: load failed", "path", r.URL.Path, "err", err)
	jsonErr(w, http.StatusBadGateway, sourceFailedMsg)
}

// latestDate returns the greatest date in ms, or nil when ms is empty.
func latestDate(ms []types.Measurement) *string {
	if len(ms) == 0 {
		return nil
	}
	d := slices.MaxFunc(ms, func(a, b types.Measurement) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	}).Date
	return &d
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
