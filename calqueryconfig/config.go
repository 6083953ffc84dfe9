// Package calqueryconfig loads the engine's YAML configuration,
// grounded on artpromedia-email/services/calendar/config/config.go:
// read the file, expand $VARS against the environment, unmarshal into
// a typed struct, then fill in defaults for anything left zero.
package calqueryconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine's top-level configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Query   QueryConfig   `yaml:"query"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig configures calquerylog.
type LogConfig struct {
	Level string `yaml:"level"`
}

// QueryConfig holds the query engine's tunables.
type QueryConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

// MetricsConfig configures the prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Load reads and parses the YAML config file at path, expanding
// environment variable references before unmarshaling, and filling in
// defaults for any zero-valued field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a Config with every field set to its default,
// for callers (such as the CLI) that run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Query.DefaultLimit == 0 {
		cfg.Query.DefaultLimit = 50
	}
	if cfg.Query.MaxLimit == 0 {
		cfg.Query.MaxLimit = 1000
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
}
