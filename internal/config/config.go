// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and PROCTOR_* env vars.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory frame queue.
	QueueSize int `koanf:"queue_size"`

	// QueueDropOldest sheds the oldest frame when the queue is full.
	// When false the newest frame is refused with 429.
	QueueDropOldest bool `koanf:"queue_drop_oldest"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many frame ids are remembered. Zero is unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// ResultsLogPath is where POST /api/results payloads are appended.
	// Empty disables the endpoint.
	ResultsLogPath       string `koanf:"results_log_path"`
	ResultsLogMaxSizeMB  int    `koanf:"results_log_max_size_mb"`
	ResultsLogMaxBackups int    `koanf:"results_log_max_backups"`
	ResultsLogMaxAgeDays int    `koanf:"results_log_max_age_days"`
	ResultsLogCompress   bool   `koanf:"results_log_compress"`

	// ModelPath points at an optional trained classifier file.
	ModelPath string `koanf:"model_path"`

	// WSIntervalMS is how often the WebSocket hub pushes the latest result.
	WSIntervalMS int `koanf:"ws_interval_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":5000",
		QueueSize:            64,
		QueueDropOldest:      true,
		WorkerCount:          1,
		DedupeSize:           10_000,
		ResultsLogPath:       "results/results.jsonl",
		ResultsLogMaxSizeMB:  100,
		ResultsLogMaxBackups: 3,
		ResultsLogMaxAgeDays: 7,
		ResultsLogCompress:   true,
		ModelPath:            "models/cheating_model.pkl",
		WSIntervalMS:         500,
	}
}

// WSInterval returns the WebSocket push interval.
func (c *Config) WSInterval() time.Duration {
	return time.Duration(c.WSIntervalMS) * time.Millisecond
}
