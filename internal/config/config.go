// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for tanchat.
//
// Supports both TOML and JSON formats, with defaults, environment variable
// overrides, and validation with clamping.
//
// Configuration file locations (in order of precedence):
//   - ~/.tanchat/config.toml
//   - ~/.tanchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/tanchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tanchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Provider ProviderConfig `toml:"provider" json:"provider"`
	Gateway  GatewayConfig  `toml:"gateway" json:"gateway"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	UI       UIConfig       `toml:"ui" json:"ui"`
}

// ProviderConfig configures the upstream model API.
type ProviderConfig struct {
	// APIKey authenticates against the upstream API. Usually set via the
	// ANTHROPIC_API_KEY environment variable rather than on disk.
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL is the upstream API base URL.
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the model to request.
	Model string `toml:"model" json:"model"`
	// MaxTokens caps generation length.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// GatewayConfig configures the local gateway and how clients reach it.
type GatewayConfig struct {
	// Port is the port `tanchat serve` listens on.
	Port int `toml:"port" json:"port"`
	// URL is where chat clients find the gateway.
	URL string `toml:"url" json:"url"`
	// RateLimitPerSec is the per-client request budget.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `toml:"rate_limit_burst" json:"rate_limit_burst"`
}

// StorageConfig configures conversation persistence.
type StorageConfig struct {
	// DatabasePath is the SQLite database location (empty = default).
	DatabasePath string `toml:"database_path" json:"database_path"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	// Theme is "auto", "dark", or "light".
	Theme string `toml:"theme" json:"theme"`
	// ShowBanner shows the top banner on startup.
	ShowBanner bool `toml:"show_banner" json:"show_banner"`
	// WordWrap is the markdown render width (0 = terminal width).
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultVersion   = "0.1.0"
	DefaultModel     = "claude-sonnet-4-5"
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultMaxTokens = 4096
	DefaultPort      = 8787
	MaxTokensLimit   = 128000
)

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: DefaultVersion,
		Provider: ProviderConfig{
			BaseURL:   DefaultBaseURL,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Gateway: GatewayConfig{
			Port:            DefaultPort,
			URL:             fmt.Sprintf("http://localhost:%d", DefaultPort),
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
		},
		Storage: StorageConfig{},
		UI: UIConfig{
			Theme:      "auto",
			ShowBanner: true,
			WordWrap:   0,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.tanchat.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tanchat"), nil
}

// ConfigPathTOML returns the TOML config path.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the JSON config path.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DatabasePath returns the effective conversation database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads config from disk, applies env overrides, and validates.
// Missing files are not an error; defaults fill every gap.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
			cfg.ApplyEnvOverrides()
			cfg.Validate()
			return cfg, nil
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadJSON(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.Validate()
	return cfg, nil
}

// LoadTOML decodes a TOML config file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON config file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return nil
}

// LoadFromPath loads config from an explicit path, picking the format from
// the extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.Validate()
	return cfg, nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config as TOML to the default location.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the config as TOML atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML config: %w", err)
	}
	// 0600: the file may hold an API key.
	return util.AtomicWriteFile(path, []byte(buf.String()), 0600)
}

// SaveJSON writes the config as JSON atomically.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON config: %w", err)
	}
	return util.AtomicWriteFile(path, append(data, '\n'), 0600)
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides layers TANCHAT_* environment variables over the config.
// ANTHROPIC_API_KEY is honored for the provider key since that is where
// most users already have it.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TANCHAT_API_KEY"); v != "" {
		c.Provider.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.Provider.APIKey == "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("TANCHAT_PROVIDER_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("TANCHAT_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("TANCHAT_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Gateway.Port = port
		}
	}
	if v := os.Getenv("TANCHAT_GATEWAY_URL"); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv("TANCHAT_DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("TANCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate clamps out-of-range values to sane bounds. Always succeeds:
// bad config degrades to defaults instead of refusing to start.
func (c *Config) Validate() {
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		c.Gateway.Port = DefaultPort
	}
	if c.Gateway.URL == "" {
		c.Gateway.URL = fmt.Sprintf("http://localhost:%d", c.Gateway.Port)
	}
	if c.Gateway.RateLimitPerSec <= 0 {
		c.Gateway.RateLimitPerSec = 10
	}
	if c.Gateway.RateLimitBurst <= 0 {
		c.Gateway.RateLimitBurst = 20
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = DefaultMaxTokens
	}
	if c.Provider.MaxTokens > MaxTokensLimit {
		c.Provider.MaxTokens = MaxTokensLimit
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = DefaultBaseURL
	}
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModel
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		c.UI.Theme = "auto"
	}
	if c.UI.WordWrap < 0 {
		c.UI.WordWrap = 0
	}
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide config, loading it on first use.
func Global() *Config {
	globalMu.RLock()
	if globalCfg != nil {
		defer globalMu.RUnlock()
		return globalCfg
	}
	globalMu.RUnlock()

	cfg, err := Load()
	if err != nil {
		cfg = Default()
	}
	SetGlobal(cfg)
	return cfg
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}
