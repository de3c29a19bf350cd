// Package loader handles configuration file loading and validation.
//
// This package is responsible for:
//   - Loading YAML configuration files
//   - Expanding environment variables
//   - Overlaying documented defaults
//   - Validating the result before the daemon starts
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rollcall/gradebook/config"
	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/schema"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the root configuration structure for gradebookd.
type Config struct {
	// Listen is the HTTP server listen address.
	// Format: "host:port" or ":port"
	// Default: "0.0.0.0:8080"
	Listen string `yaml:"listen"`

	// CSV configures the backing flat file.
	CSV CSVConfig `yaml:"csv"`

	// Logging configures log level, format and destination.
	Logging LoggingConfig `yaml:"logging"`

	// Aggregate configures the averaging worker pool.
	Aggregate AggregateConfig `yaml:"aggregate"`

	// Schema declares the record layout.
	Schema schema.Schema `yaml:"schema"`

	// Server configures shutdown and timeout behavior.
	Server ServerConfig `yaml:"server"`
}

// CSVConfig configures the storage gateway.
type CSVConfig struct {
	// FilePath is the backing file. Every mutation rewrites it in full.
	FilePath string `yaml:"file_path"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// LogPath, when set, sends logs to a file instead of stdout.
	LogPath string `yaml:"log_path"`
}

// AggregateConfig configures the aggregation engine.
type AggregateConfig struct {
	// Workers is the worker pool size. Default 10.
	Workers int `yaml:"workers"`

	// FailureMode is "abort" (default) or "partial".
	FailureMode string `yaml:"failure_mode"`

	// PercentileAccuracy is the DDSketch relative accuracy for summaries.
	PercentileAccuracy float64 `yaml:"percentile_accuracy"`
}

// ServerConfig configures server lifecycle behavior.
type ServerConfig struct {
	// DrainTimeoutSec is how long shutdown waits for in-flight requests.
	DrainTimeoutSec int `yaml:"drain_timeout_sec"`

	// ReadHeaderTimeoutSec bounds the wait for request headers.
	ReadHeaderTimeoutSec int `yaml:"read_header_timeout_sec"`
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Listen: config.DefaultListenAddress,
		CSV: CSVConfig{
			FilePath: config.DefaultCSVPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Aggregate: AggregateConfig{
			Workers:            config.DefaultAggregateWorkers,
			FailureMode:        config.DefaultFailureMode,
			PercentileAccuracy: config.DefaultPercentileAccuracy,
		},
		Schema: schema.Default(),
		Server: ServerConfig{
			DrainTimeoutSec:      config.DefaultDrainTimeoutSec,
			ReadHeaderTimeoutSec: int(config.DefaultReadHeaderTimeout.Seconds()),
		},
	}
}

// =============================================================================
// Load
// =============================================================================

// Load loads configuration from a YAML file, expanding environment variables
// and overlaying defaults for any omitted value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// Validate
// =============================================================================

// Validate validates the configuration.
func Validate(cfg *Config) error {
	errs := errors.NewValidationErrors()

	if cfg.Listen == "" {
		errs.AddField("listen", "cannot be empty")
	}
	if cfg.CSV.FilePath == "" {
		errs.AddField("csv.file_path", "cannot be empty")
	}
	if cfg.Aggregate.Workers < 1 {
		errs.AddField("aggregate.workers", "must be a positive integer")
	}
	if _, err := aggregate.ParseFailureMode(cfg.Aggregate.FailureMode); err != nil {
		errs.AddField("aggregate.failure_mode", err.Error())
	}
	if cfg.Aggregate.PercentileAccuracy <= 0 || cfg.Aggregate.PercentileAccuracy >= 1 {
		errs.AddField("aggregate.percentile_accuracy", "must be in (0, 1)")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs.AddField("logging.level", err.Error())
	}
	if cfg.Logging.Format != "" && cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		errs.AddField("logging.format", "must be \"text\" or \"json\"")
	}
	if cfg.Server.DrainTimeoutSec < 0 {
		errs.AddField("server.drain_timeout_sec", "cannot be negative")
	}

	if err := cfg.Schema.Validate(); err != nil {
		errs.Add(err)
	}

	return errs.Err()
}
