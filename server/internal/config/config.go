package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/compute"
	"github.com/lemonwatch/lemonwatch/server/internal/source"
	"github.com/lemonwatch/lemonwatch/server/internal/synth"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 5000
	DefaultStreamInterval = 5 * time.Second
	DefaultCSVPath        = "data/lemon_measurements.csv"
	DefaultSQLitePath     = "data/lemon_measurements.db"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, /metrics, and WebSocket stream listen on.
	HTTPPort int `yaml:"http_port" env:"LEMON_HTTP_PORT"`

	// StreamInterval is how often the aggregated view is pushed to
	// WebSocket clients.
	StreamInterval time.Duration `yaml:"stream_interval" env:"LEMON_STREAM_INTERVAL"`
}

// DataConfig locates the record sources. Empty paths disable a source.
type DataConfig struct {
	CSVPath    string `yaml:"csv_path" env:"LEMON_CSV"`
	SQLitePath string `yaml:"sqlite_path" env:"LEMON_SQLITE"`

	// Table is the measurement table in SQLite and PostgreSQL.
	Table string `yaml:"table" env:"LEMON_TABLE"`

	// PostgresDSNEnv names the environment variable holding the PostgreSQL
	// DSN, so credentials stay out of the config file.
	PostgresDSNEnv string `yaml:"postgres_dsn_env"`
}

// PostgresDSN returns the DSN resolved from the environment, or "".
func (d DataConfig) PostgresDSN() string {
	if d.PostgresDSNEnv == "" {
		return ""
	}
	return os.Getenv(d.PostgresDSNEnv)
}

// AnalysisConfig holds the default pipeline thresholds. Requests may
// override them individually.
type AnalysisConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"LEMON_CONF_THRESHOLD"`
	AnomalyThreshold    float64 `yaml:"anomaly_threshold" env:"LEMON_ANOMALY_THRESHOLD"`
}

// Options converts the thresholds to compute.Options.
func (a AnalysisConfig) Options() compute.Options {
	return compute.Options{
		ConfidenceThreshold: a.ConfidenceThreshold,
		AnomalyThreshold:    a.AnomalyThreshold,
	}
}

// SyntheticConfig parameterises the fallback generator.
type SyntheticConfig struct {
	Lemons int    `yaml:"lemons" env:"LEMON_SYNTH_LEMONS"`
	Days   int    `yaml:"days" env:"LEMON_SYNTH_DAYS"`
	Seed   int64  `yaml:"seed" env:"LEMON_SYNTH_SEED"`
	Start  string `yaml:"start" env:"LEMON_SYNTH_START"` // YYYY-MM-DD
}

// Options converts the section to synth.Options. An unparsable Start is an
// error, never replaced by a default.
func (s SyntheticConfig) Options() (synth.Options, error) {
	start, err := time.Parse(types.DateLayout, s.Start)
	if err != nil {
		return synth.Options{}, fmt.Errorf("synthetic.start %q is not YYYY-MM-DD", s.Start)
	}
	return synth.Options{Lemons: s.Lemons, Days: s.Days, Seed: s.Seed, Start: start}, nil
}

// Load reads the YAML file at path, overlays environment variables, and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			StreamInterval: DefaultStreamInterval,
		},
		Data: DataConfig{
			CSVPath:    DefaultCSVPath,
			SQLitePath: DefaultSQLitePath,
			Table:      source.DefaultTable,
		},
		Analysis: AnalysisConfig{
			ConfidenceThreshold: compute.DefaultConfidenceThreshold,
			AnomalyThreshold:    compute.DefaultAnomalyThreshold,
		},
		Synthetic: SyntheticConfig{
			Lemons: synth.DefaultLemons,
			Days:   synth.DefaultDays,
			Seed:   synth.DefaultSeed,
			Start:  synth.DefaultStart.Format(types.DateLayout),
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}
	if cfg.Data.Table == "" {
		return fmt.Errorf("data.table is required")
	}
	if err := cfg.Analysis.Options().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if cfg.Synthetic.Lemons < 0 || cfg.Synthetic.Days < 0 {
		return fmt.Errorf("synthetic.lemons and synthetic.days must not be negative")
	}
	if _, err := cfg.Synthetic.Options(); err != nil {
		return err
	}
	return nil
}
