package api

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// ExportFilename is the attachment name of GET /api/download.
const ExportFilename = "lemon_measurements_export.csv"

var exportHeader = []string{"timestamp", "entity_id", "diameter", "confidence", "date"}

// download returns GET /api/download — the measurements that survived the
// confidence filter, in source order, as CSV.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.requestOptions(w, r, false)
	if !ok {
		return
	}
	s, err := h.load(r.Context(), opts.ConfidenceThreshold)
	if err != nil {
		h.pipelineErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.WriteHeader(http.StatusOK)
	writeExport(w, s.kept) //nolint:errcheck
}

func writeExport(w io.Writer, ms []types.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	row := make([]string, len(exportHeader))
	for _, m := range ms {
		row[0] = m.Timestamp.Format("2006-01-02 15:04:05")
		row[1] = strconv.Itoa(m.EntityID)
		row[2] = strconv.FormatFloat(m.Diameter, 'f', -1, 64)
		row[3] = strconv.FormatFloat(m.Confidence, 'f', -1, 64)
		row[4] = m.Date
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
