// Package config loads the LemonWatch server configuration.
//
// Config sections:
//   - Server    — http_port (default 5000), stream_interval (default 5s)
//   - Data      — csv_path, sqlite_path, table, postgres_dsn_env; the record
//     sources tried in that order before falling back to synthetic data
//   - Analysis  — confidence_threshold (0.70), anomaly_threshold (1.5 cm)
//   - Synthetic — lemons, days, seed, start for the fallback generator
//
// Load(path) applies defaults, unmarshals the YAML file (skipped when path is
// empty), overlays environment variables (LEMON_CSV, LEMON_SQLITE,
// LEMON_CONF_THRESHOLD, …), then validates. Out-of-range values are
// rejected, never replaced by defaults.
//
// Watch(ctx, path, onChange) reloads the file on change via fsnotify.
package config
