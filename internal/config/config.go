// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete scmlite configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend connection
	Backend BackendConfig `toml:"backend"`

	// Telemetry polling
	Poll PollConfig `toml:"poll"`

	// Local telemetry history
	History HistoryConfig `toml:"history"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// BackendConfig contains the backend connection settings.
type BackendConfig struct {
	// BaseURL is the SCM Lite backend base URL
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// PollConfig contains telemetry polling settings.
type PollConfig struct {
	// IntervalSecs is the gap between telemetry refetches in seconds
	IntervalSecs int `toml:"interval_secs"`
	// DefaultDevice is the device selection preselected on the telemetry
	// view: a device ID or "all"
	DefaultDevice string `toml:"default_device"`
}

// HistoryConfig contains local telemetry history settings.
type HistoryConfig struct {
	// Enabled controls whether rendered telemetry is recorded locally
	Enabled bool `toml:"enabled"`
	// Path is the history database file (empty = ~/.scmlite/history.db)
	Path string `toml:"path"`
	// RetainRows is how many records to keep before the oldest are pruned
	RetainRows int `toml:"retain_rows"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 10,
		},

		Poll: PollConfig{
			IntervalSecs:  5,
			DefaultDevice: "all",
		},

		History: HistoryConfig{
			Enabled:    true,
			Path:       "",
			RetainRows: 5000,
		},

		UI: UIConfig{
			Theme:       "dark",
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the scmlite configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".scmlite"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; defaults apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# scmlite configuration file")
	fmt.Fprintln(file, "# Generated by scmlite - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Backend.BaseURL != "" {
		if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Backend.BaseURL),
			})
		}
	}

	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 120 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be 1-120, got %d", c.Backend.TimeoutSecs),
		})
	}

	if c.Poll.IntervalSecs < 1 || c.Poll.IntervalSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "poll.interval_secs",
			Message: fmt.Sprintf("must be 1-300, got %d", c.Poll.IntervalSecs),
		})
	}

	if c.History.RetainRows < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retain_rows",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Poll.IntervalSecs == 0 {
		c.Poll.IntervalSecs = defaults.Poll.IntervalSecs
	}
	if c.Poll.DefaultDevice == "" {
		c.Poll.DefaultDevice = defaults.Poll.DefaultDevice
	}
	if c.History.RetainRows == 0 {
		c.History.RetainRows = defaults.History.RetainRows
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SCMLITE_BACKEND_URL: overrides backend.base_url
//   - SCMLITE_TIMEOUT_SECS: overrides backend.timeout_secs
//   - SCMLITE_POLL_INTERVAL_SECS: overrides poll.interval_secs
//   - SCMLITE_DEVICE: overrides poll.default_device
//   - SCMLITE_HISTORY: set to "0" or "false" to disable local history
//   - SCMLITE_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if base := os.Getenv("SCMLITE_BACKEND_URL"); base != "" {
		c.Backend.BaseURL = base
	}
	if secs := os.Getenv("SCMLITE_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}
	if secs := os.Getenv("SCMLITE_POLL_INTERVAL_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Poll.IntervalSecs = n
		}
	}
	if device := os.Getenv("SCMLITE_DEVICE"); device != "" {
		c.Poll.DefaultDevice = device
	}
	if hist := os.Getenv("SCMLITE_HISTORY"); hist != "" {
		c.History.Enabled = hist != "0" && strings.ToLower(hist) != "false"
	}
	if theme := os.Getenv("SCMLITE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// HistoryPath returns the history database path, resolving the default
// location when none is configured.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
