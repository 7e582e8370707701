package config

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config drives the simulation harness: tick cadence, creep roster, sweep
// intervals, persistence, and resilience tuning. The queue itself is
// configuration-free.
type Config struct {
	TickMS        int     `yaml:"tick_ms"`        // wall-clock milliseconds per tick
	Creeps        int     `yaml:"creeps"`         // roster size
	DeathChance   float64 `yaml:"death_chance"`   // per-creep per-tick death probability
	DBPath        string  `yaml:"db_path"`        // sqlite snapshot path; empty = in-memory
	DefaultTTL    int64   `yaml:"default_ttl"`    // ticks a planner-created task lives
	CleanupEvery  int64   `yaml:"cleanup_every"`  // ticks between expiry sweeps
	SnapshotEvery int64   `yaml:"snapshot_every"` // ticks between sqlite snapshots
	Concurrency   int     `yaml:"concurrency"`    // max creep actions in flight per wave

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig tunes the per-action exponential backoff.
type RetryConfig struct {
	InitialIntervalMS int     `yaml:"initial_interval_ms"`
	MaxIntervalMS     int     `yaml:"max_interval_ms"`
	MaxElapsedMS      int     `yaml:"max_elapsed_ms"`
	Multiplier        float64 `yaml:"multiplier"`
}

// InitialInterval returns the initial retry interval as a duration.
func (r RetryConfig) InitialInterval() time.Duration {
	return time.Duration(r.InitialIntervalMS) * time.Millisecond
}

// MaxInterval returns the maximum retry interval as a duration.
func (r RetryConfig) MaxInterval() time.Duration {
	return time.Duration(r.MaxIntervalMS) * time.Millisecond
}

// MaxElapsed returns the total retry budget as a duration.
func (r RetryConfig) MaxElapsed() time.Duration {
	return time.Duration(r.MaxElapsedMS) * time.Millisecond
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		TickMS:        50,
		Creeps:        4,
		DeathChance:   0,
		DBPath:        "",
		DefaultTTL:    500,
		CleanupEvery:  10,
		SnapshotEvery: 50,
		Concurrency:   4,
		Retry: RetryConfig{
			InitialIntervalMS: 10,
			MaxIntervalMS:     200,
			MaxElapsedMS:      1000,
			Multiplier:        2.0,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error (defaults apply); malformed YAML is. Out-of-range values are clamped
// back to their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	return clamp(cfg), nil
}

// clamp pulls nonsensical values back to the defaults.
func clamp(cfg Config) Config {
	def := Default()
	if cfg.TickMS <= 0 {
		cfg.TickMS = def.TickMS
	}
	if cfg.Creeps <= 0 {
		cfg.Creeps = def.Creeps
	}
	if cfg.DeathChance < 0 || cfg.DeathChance >= 1 {
		cfg.DeathChance = def.DeathChance
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = def.DefaultTTL
	}
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = def.CleanupEvery
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = def.SnapshotEvery
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Retry.InitialIntervalMS <= 0 {
		cfg.Retry.InitialIntervalMS = def.Retry.InitialIntervalMS
	}
	if cfg.Retry.MaxIntervalMS <= 0 {
		cfg.Retry.MaxIntervalMS = def.Retry.MaxIntervalMS
	}
	if cfg.Retry.MaxElapsedMS <= 0 {
		cfg.Retry.MaxElapsedMS = def.Retry.MaxElapsedMS
	}
	if cfg.Retry.Multiplier <= 1 {
		cfg.Retry.Multiplier = def.Retry.Multiplier
	}
	return cfg
}
