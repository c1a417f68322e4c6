// Package config loads ski settings from defaults, a YAML file, the
// environment and command-line overrides, in increasing precedence.
package config

import (
	"time"

	"nickandperla.net/ski/internal/eval"
)

// EnvPrefix is stripped from environment variables before mapping them to
// keys: SKI_LIMITS_MAX_PASSES sets limits.max_passes.
const EnvPrefix = "SKI_"

// DefaultDBPath is the library database used when none is configured.
const DefaultDBPath = "ski.db"

// Config is the complete configuration.
type Config struct {
	Limits  LimitsConfig  `koanf:"limits"`
	Store   StoreConfig   `koanf:"store"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Prelude bool          `koanf:"prelude"`
}

// LimitsConfig bounds every reduction. Zero disables a bound.
type LimitsConfig struct {
	MaxPasses int           `koanf:"max_passes" validate:"min=0"`
	MaxNodes  int           `koanf:"max_nodes" validate:"min=0"`
	Timeout   time.Duration `koanf:"timeout" validate:"min=0"`
}

// StoreConfig locates the definition library.
type StoreConfig struct {
	Path     string `koanf:"path" validate:"required_unless=Disabled true"`
	Disabled bool   `koanf:"disabled"`
	History  bool   `koanf:"history"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// MetricsConfig controls the metrics export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxPasses: eval.DefaultMaxPasses,
			MaxNodes:  eval.DefaultMaxNodes,
		},
		Store: StoreConfig{
			Path:    DefaultDBPath,
			History: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// EvalLimits converts the limits section for the evaluator.
func (c *Config) EvalLimits() eval.Limits {
	return eval.Limits{
		MaxPasses: c.Limits.MaxPasses,
		MaxNodes:  c.Limits.MaxNodes,
		Timeout:   c.Limits.Timeout,
	}
}
