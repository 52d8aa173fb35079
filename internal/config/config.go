// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages ragai-console configuration.
//
// Configuration sources, in order of precedence:
//   - RAGAI_* environment variables
//   - ~/.ragai/console.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete console configuration.
type Config struct {
	// API is the backend connection configuration.
	API APIConfig `toml:"api"`

	// UI holds rendering preferences.
	UI UIConfig `toml:"ui"`

	// Logging controls the diagnostic log file.
	Logging LoggingConfig `toml:"logging"`

	// Downloads controls where exports and attachments land.
	Downloads DownloadsConfig `toml:"downloads"`
}

// APIConfig describes how to reach the backend.
type APIConfig struct {
	// URL of the backend. The state store's API_URL override, when set,
	// wins over this value.
	URL string `toml:"url"`

	// TimeoutSeconds for plain JSON requests. SSE streams are exempt.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RetryMax is the retry count for idempotent reads.
	RetryMax int `toml:"retry_max"`

	// AdminToken, when set, unlocks the admin surface without prompting.
	AdminToken string `toml:"admin_token"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// UIConfig holds rendering preferences.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto".
	Theme string `toml:"theme"`

	// MarkdownStyle is the glamour style name for assistant output.
	MarkdownStyle string `toml:"markdown_style"`

	// Mouse enables mouse support in the TUI.
	Mouse bool `toml:"mouse"`
}

// LoggingConfig controls the diagnostic log file.
type LoggingConfig struct {
	// Level is a logrus level name ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// File is the log destination; empty logs to ~/.ragai/console.log.
	File string `toml:"file"`
}

// DownloadsConfig controls export destinations.
type DownloadsConfig struct {
	// Dir receives exports; empty means the working directory.
	Dir string `toml:"dir"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 30,
			RetryMax:       2,
		},
		UI: UIConfig{
			Theme:         "auto",
			MarkdownStyle: "dark",
			Mouse:         true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the ragai configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragai"), nil
}

// Path returns the TOML config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "console.toml"), nil
}

// EnsureDir creates the config directory when missing.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, fills defaults, applies environment
// overrides, and validates. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides folds RAGAI_* environment variables into the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RAGAI_API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("RAGAI_ADMIN_TOKEN"); v != "" {
		cfg.API.AdminToken = v
	}
	if v := os.Getenv("RAGAI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.API.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("RAGAI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RAGAI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv("RAGAI_DOWNLOADS_DIR"); v != "" {
		cfg.Downloads.Dir = v
	}
}

// fillDefaults patches zero values left by a sparse file.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.API.URL == "" {
		cfg.API.URL = def.API.URL
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = def.API.TimeoutSeconds
	}
	if cfg.API.RetryMax < 0 {
		cfg.API.RetryMax = def.API.RetryMax
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = def.UI.Theme
	}
	if cfg.UI.MarkdownStyle == "" {
		cfg.UI.MarkdownStyle = def.UI.MarkdownStyle
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values that would misbehave later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.url %q is not a valid http(s) URL", c.API.URL)
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme %q is not one of dark, light, auto", c.UI.Theme)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}

	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with owner-only
// permissions; the admin token may be in it.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, []byte(buf.String()), 0600)
}
