// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	cfg.Validate()

	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, cfg.Gateway.Port)
	}
	if cfg.Provider.Model != DefaultModel {
		t.Errorf("Expected default model, got %q", cfg.Provider.Model)
	}
	if !cfg.UI.ShowBanner {
		t.Error("Expected banner shown by default")
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := Default()
	cfg.Gateway.Port = -1
	cfg.Provider.MaxTokens = 999999999
	cfg.UI.Theme = "neon"
	cfg.UI.WordWrap = -5

	cfg.Validate()

	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("Expected port clamped to default, got %d", cfg.Gateway.Port)
	}
	if cfg.Provider.MaxTokens != MaxTokensLimit {
		t.Errorf("Expected max tokens clamped to %d, got %d", MaxTokensLimit, cfg.Provider.MaxTokens)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("Expected unknown theme reset to auto, got %q", cfg.UI.Theme)
	}
	if cfg.UI.WordWrap != 0 {
		t.Errorf("Expected negative word wrap reset, got %d", cfg.UI.WordWrap)
	}
}

func TestSaveAndLoadTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Provider.Model = "test-model"
	cfg.Gateway.Port = 9999
	cfg.UI.Theme = "dark"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	// Key material gets restrictive permissions
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	loaded := Default()
	if err := LoadTOML(loaded, path); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}
	if loaded.Provider.Model != "test-model" || loaded.Gateway.Port != 9999 || loaded.UI.Theme != "dark" {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}

func TestSaveAndLoadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Storage.DatabasePath = "/tmp/x.db"
	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded := Default()
	if err := LoadJSON(loaded, path); err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if loaded.Storage.DatabasePath != "/tmp/x.db" {
		t.Errorf("Round trip lost database path: %q", loaded.Storage.DatabasePath)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TANCHAT_API_KEY", "env-key")
	t.Setenv("TANCHAT_MODEL", "env-model")
	t.Setenv("TANCHAT_GATEWAY_PORT", "1234")
	t.Setenv("TANCHAT_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.Validate()

	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("Expected env api key, got %q", cfg.Provider.APIKey)
	}
	if cfg.Provider.Model != "env-model" {
		t.Errorf("Expected env model, got %q", cfg.Provider.Model)
	}
	if cfg.Gateway.Port != 1234 {
		t.Errorf("Expected env port, got %d", cfg.Gateway.Port)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Expected env theme, got %q", cfg.UI.Theme)
	}
}

func TestAnthropicKeyFallback(t *testing.T) {
	t.Setenv("TANCHAT_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "fallback-key")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Provider.APIKey != "fallback-key" {
		t.Errorf("Expected ANTHROPIC_API_KEY fallback, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := []byte("[provider]\nmodel = \"from-file\"\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Provider.Model != "from-file" {
		t.Errorf("Expected model from file, got %q", cfg.Provider.Model)
	}
	// Unspecified sections keep defaults
	if cfg.Gateway.Port != DefaultPort {
		t.Errorf("Expected default port preserved, got %d", cfg.Gateway.Port)
	}
}

func TestDatabasePathDefault(t *testing.T) {
	cfg := Default()
	path, err := cfg.DatabasePath()
	if err != nil {
		t.Fatalf("DatabasePath failed: %v", err)
	}
	if filepath.Base(path) != "conversations.db" {
		t.Errorf("Unexpected default db path: %q", path)
	}

	cfg.Storage.DatabasePath = "/custom/db.sqlite"
	path, _ = cfg.DatabasePath()
	if path != "/custom/db.sqlite" {
		t.Errorf("Expected explicit path honored, got %q", path)
	}
}
