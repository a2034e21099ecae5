package api

import (
	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/compute"
)

// DataResponse is the payload for GET /api/data and the WebSocket stream.
type DataResponse struct {
	compute.View
	Meta Meta `json:"_meta"`
}

// Meta describes where a DataResponse came from.
type Meta struct {
	Source    string `json:"source"`
	Synthetic bool   `json:"synthetic"`
	Generated string `json:"generated"` // RFC3339, UTC
	RowsRaw   int    `json:"rows_raw"`
	RowsKept  int    `json:"rows_kept"`
	Filtered  int    `json:"filtered"`
}

// AnomaliesResponse is the payload for GET /api/anomalies.
type AnomaliesResponse struct {
	Anomalies []types.AnomalyEvent `json:"anomalies"`
	Threshold float64              `json:"threshold"`
	Total     int                  `json:"total"`
}

// StatusResponse is the payload for GET /api/status.
type StatusResponse struct {
	OK         bool    `json:"ok"`
	Source     string  `json:"source"`
	Synthetic  bool    `json:"synthetic"`
	LatestDate *string `json:"latest_date"` // null when nothing survived filtering
	TotalRows  int     `json:"total_rows"`
	ServerTime string  `json:"server_time"`
}

type errorResponse struct {
	Error string `json:"error"`
}
