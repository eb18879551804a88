// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide a New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration for the team-formation engine.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultMaxTimeSeconds is used when a solve request omits max_time.
	DefaultMaxTimeSeconds int `koanf:"default_max_time_seconds"`

	// CompileTimeout bounds model construction (Normalizer + Compiler +
	// Model Builder), separate from solver wall time (spec §5).
	CompileTimeout time.Duration `koanf:"compile_timeout"`

	// ProgressDrainInterval is loaded with the rest of the config but no
	// component reads it: the service's drain loop blocks on the publisher's
	// signal channel rather than polling it.
	ProgressDrainInterval time.Duration `koanf:"progress_drain_interval"`

	// SolverWorkerCount bounds how many solves the process runs concurrently.
	SolverWorkerCount int `koanf:"solver_worker_count"`

	// DedupeSize sets the size of the duplicate-participant-id guard cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with default values. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		DefaultMaxTimeSeconds: 60,
		CompileTimeout:        30 * time.Second,
		ProgressDrainInterval: 50 * time.Millisecond,
		SolverWorkerCount:     runtime.NumCPU(),
		DedupeSize:            50_000,
	}
}
