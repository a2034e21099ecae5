// Package compute derives the LemonWatch aggregates from raw measurements.
//
// Every function is pure: it reads its inputs, allocates fresh outputs, and
// never retains state between calls, so concurrent requests can share nothing
// but the configuration values they pass in.
//
//	normalize.go — confidence filter + calendar-day bucketing
//	fleet.go     — per-date median/q25/q75 and distinct-lemon counts
//	series.go    — per-lemon daily medians
//	anomaly.go   — day-over-day delta scan over the per-lemon series
//	summary.go   — headline numbers from the last two fleet points
//	view.go      — assembles the full aggregated view
//
// Quantiles use linear interpolation between closest ranks, pos = p·(n−1).
package compute
