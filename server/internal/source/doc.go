// Package source provides the record sources the pipeline reads raw lemon
// measurements from.
//
// Implemented sources: CSV file (csv.go), SQLite file (sqlite.go),
// PostgreSQL table (postgres.go), and the synthetic generator
// (synthetic.go). Chain (chain.go) tries the configured sources in order and
// falls back to synthetic data when none is available, flagging the snapshot
// so synthetic data is never mistaken for real data.
//
// A source that does not exist or is not configured returns an error wrapping
// ErrUnavailable. Any other error means the source exists but could not be
// read, and is propagated to the caller.
//
// Tables and files may use either the original column names
// (lemon_id, diameter_cm) or entity_id and diameter.
package source
