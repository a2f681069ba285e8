// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for loglens.
type Config struct {
	Log     LogConfig      `toml:"log"`
	Engine  EngineConfig   `toml:"engine"`
	Sources []SourceConfig `toml:"source"`
}

// LogConfig controls the daemon's own logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// EngineConfig controls engine behavior.
type EngineConfig struct {
	// MaxInitialLines bounds how many existing lines are loaded when a
	// source is first read. Zero means no limit.
	MaxInitialLines int `toml:"max_initial_lines"`
}

// SourceConfig declares a source to watch at startup. A non-empty Pattern
// makes it a folder source.
type SourceConfig struct {
	Path    string `toml:"path"`
	Pattern string `toml:"pattern"`
	Name    string `toml:"name"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			MaxInitialLines: 1000,
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "loglens", "config.toml")
}

// Load reads configuration from the given path, falling back to defaults
// for any unset fields. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
