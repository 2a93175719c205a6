// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"os"
	"path/filepath"
)

// Storage backends for roster and history.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// DataDir holds the database and session snapshot unless their paths
	// are set explicitly.
	DataDir string `koanf:"data_dir"`

	// DatabasePath is the SQLite file for roster and history.
	DatabasePath string `koanf:"database_path"`

	// SessionPath is the Badger directory for the active-session snapshot.
	SessionPath string `koanf:"session_path"`

	// SessionInMemory keeps the snapshot in process only.
	SessionInMemory bool `koanf:"session_in_memory"`

	// Storage selects the roster and history backend: sqlite or memory.
	Storage string `koanf:"storage" validate:"oneof=sqlite memory"`

	// HistoryCapacity is how many finished tournaments are kept.
	HistoryCapacity int `koanf:"history_capacity" validate:"min=1,max=1000"`

	// DefaultTargets and DefaultShotsPerTarget are the shape a fresh
	// session starts with.
	DefaultTargets        int `koanf:"default_targets" validate:"min=1,max=100"`
	DefaultShotsPerTarget int `koanf:"default_shots_per_target" validate:"min=1,max=20"`

	// DefaultPlayers seeds the roster while none is stored.
	DefaultPlayers []string `koanf:"default_players" validate:"dive,max=64"`

	// MetricsFile, when set, receives a Prometheus textfile dump on exit.
	MetricsFile string `koanf:"metrics_file"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required,promname"`
	MetricsSubsystem string `koanf:"metrics_subsystem" validate:"omitempty,promname"`

	// MetricsBuckets overrides the store latency histogram buckets in
	// milliseconds; they must be strictly increasing.
	MetricsBuckets []float64 `koanf:"metrics_buckets" validate:"dive,gt=0"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels" validate:"dive,keys,promname,endkeys"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		DataDir:               defaultDataDir(),
		Storage:               StorageSQLite,
		HistoryCapacity:       5,
		DefaultTargets:        20,
		DefaultShotsPerTarget: 2,
		MetricsNamespace:      "shotboard",
		MetricsSubsystem:      "core",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "shotboard")
	}
	return ".shotboard"
}

// ResolvedDatabasePath returns DatabasePath, defaulting into DataDir.
func (c *Config) ResolvedDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "shotboard.db")
}

// ResolvedSessionPath returns SessionPath, defaulting into DataDir.
func (c *Config) ResolvedSessionPath() string {
	if c.SessionPath != "" {
		return c.SessionPath
	}
	return filepath.Join(c.DataDir, "session")
}
