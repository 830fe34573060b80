// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the Icarus demo
// chat client.
//
// Supports TOML configuration with sensible defaults and environment
// variable overrides.
//
// Configuration file locations (in order of precedence):
//   - $ICARUS_CONFIG (explicit path)
//   - ~/.icarus/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete client configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api"`

	// History configuration
	History HistoryConfig `toml:"history"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// APIConfig contains inspection service connection settings.
type APIConfig struct {
	// BaseURL is the inspection service root, e.g. "https://api.xopsentia.com"
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the timeout for non-streaming requests in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// HistoryConfig contains session persistence settings.
type HistoryConfig struct {
	// Enabled controls whether sessions are saved to disk
	Enabled bool `toml:"enabled"`
	// Dir is the session storage directory (empty = ~/.icarus/sessions)
	Dir string `toml:"dir"`
	// MaxSessions limits retained sessions (0 = unlimited)
	MaxSessions int `toml:"max_sessions"`
}

// UIConfig contains UI settings.
type UIConfig struct {
	// Theme is the UI theme: "dark" or "light"
	Theme string `toml:"theme"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode"`
	// ShowAccuracy displays match accuracy percentages
	ShowAccuracy bool `toml:"show_accuracy"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://api.xopsentia.com",
			TimeoutSecs: 30,
		},
		History: HistoryConfig{
			Enabled:     true,
			Dir:         "",
			MaxSessions: 100,
		},
		UI: UIConfig{
			Theme:        "dark",
			CompactMode:  false,
			ShowAccuracy: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".icarus"), nil
}

// Path returns the path to the TOML config file, honoring the
// ICARUS_CONFIG override.
func Path() (string, error) {
	if p := os.Getenv("ICARUS_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs <= 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.History.MaxSessions < 0 {
		c.History.MaxSessions = defaults.History.MaxSessions
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ICARUS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ICARUS_API_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.API.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("ICARUS_SESSIONS_DIR"); v != "" {
		c.History.Dir = v
	}
	if v := os.Getenv("ICARUS_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url is missing a host")
	}

	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}

	return nil
}
