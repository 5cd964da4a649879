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
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// User identity
	User UserConfig `toml:"user"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Transcript archive configuration
	Storage StorageConfig `toml:"storage"`
}

// BackendConfig contains chat backend connection settings.
type BackendConfig struct {
	// URL is the backend base URL
	URL string `toml:"url"`
	// TimeoutSecs bounds each request in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond paces outgoing requests (0 = unpaced)
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UserConfig contains the stable client identity.
type UserConfig struct {
	// ID is a client-generated UUID sent with chat requests. Assigned on
	// first run and persisted so the backend sees a stable identity.
	ID string `toml:"id"`
}

// UIConfig contains interface settings.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", or "auto"
	Theme string `toml:"theme"`
	// Markdown enables rendered markdown for assistant messages
	Markdown bool `toml:"markdown"`
	// Compact reduces message spacing
	Compact bool `toml:"compact"`
}

// StorageConfig contains transcript archive settings.
type StorageConfig struct {
	// Enabled controls whether transcripts are archived locally
	Enabled bool `toml:"enabled"`
	// Path overrides the database location (empty = ~/.parley/parley.db)
	Path string `toml:"path"`
	// MaxSessions caps retained transcripts; oldest are pruned (0 = unlimited)
	MaxSessions int `toml:"max_sessions"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 30,
		},
		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
		},
		Storage: StorageConfig{
			Enabled:     true,
			MaxSessions: 100,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the parley configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the configuration directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// DatabasePath resolves the transcript database location.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "parley.db"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads the configuration: defaults, then the config file when present,
// then environment overrides. A first run assigns the user identity and
// persists it.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.SetDefaults()

	// First run: mint a stable client identity and persist it. This runs
	// before the environment is applied so a one-off override is never
	// baked into the file.
	if cfg.User.ID == "" {
		cfg.User.ID = uuid.NewString()
		if err := SaveTo(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to persist user identity: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default config path.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to path with owner-only permissions.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# Generated by parley - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS & ENV OVERRIDES
// =============================================================================

// SetDefaults fills zero values with defaults, for configs loaded from
// partial files.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Backend.URL == "" {
		c.Backend.URL = def.Backend.URL
	}
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Storage.MaxSessions < 0 {
		c.Storage.MaxSessions = 0
	}
}

// ApplyEnvOverrides applies environment variable overrides:
//   - PARLEY_URL: overrides backend.url
//   - PARLEY_TIMEOUT_SECS: overrides backend.timeout_secs
//   - PARLEY_THEME: overrides ui.theme
//   - PARLEY_NO_STORAGE: set to "1" or "true" to disable transcript archiving
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("PARLEY_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Backend.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("PARLEY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("PARLEY_NO_STORAGE"); v == "1" || strings.EqualFold(v, "true") {
		c.Storage.Enabled = false
	}
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("invalid URL %q", c.Backend.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme),
		})
	}

	if c.Backend.TimeoutSecs <= 0 || c.Backend.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("%d out of range, must be 1-600", c.Backend.TimeoutSecs),
		})
	}

	if c.Backend.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.requests_per_second",
			Message: "must not be negative",
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q, must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.User.ID != "" {
		if _, err := uuid.Parse(c.User.ID); err != nil {
			errs = append(errs, ValidationError{
				Field:   "user.id",
				Message: fmt.Sprintf("invalid UUID %q", c.User.ID),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalMu.RLock()
	if globalCfg != nil {
		defer globalMu.RUnlock()
		return globalCfg
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCfg == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalCfg = cfg
	}
	return globalCfg
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}
