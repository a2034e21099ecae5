// Package api implements the HTTP API for lemonwatch-server.
//
// New(loader, opts) returns a Handler that serves:
//
//	GET /api/data        — aggregated view plus _meta (source, row counts)
//	GET /api/anomalies   — day-over-day spikes and drops; ?threshold=<cm>
//	GET /api/download    — filtered measurements as a CSV attachment
//	GET /api/status      — source label, latest date, row count, server time
//	GET /metrics         — Prometheus text exposition of the latest view
//
// All endpoints:
//   - Accept ?confidence=<0..1> overriding the configured threshold
//   - Return 405 for non-GET methods
//   - Return 400 for malformed or out-of-range parameters
//   - Return 502 when the record source fails
//
// Every request reads its own snapshot from the loader; nothing is cached.
// JSON types are defined in types.go. No external HTTP framework is used.
package api
