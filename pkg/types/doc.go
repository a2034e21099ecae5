// Package types defines the measurement records shared by the record sources,
// the compute pipeline, and the API. These are the canonical in-memory
// representations; the JSON tags match the HTTP payloads.
package types
