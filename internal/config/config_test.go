// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cipherbot.
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every override variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, name := range append(credentialEnv,
		"CIPHERBOT_PROVIDER", "CIPHERBOT_MODEL", "CIPHERBOT_OLLAMA_URL",
		"CIPHERBOT_THEME", "CIPHERBOT_ADDR", "CIPHERBOT_TYPING_SPEED_MS") {
		t.Setenv(name, "")
	}
	return home
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 30*time.Millisecond, cfg.UI.TypingSpeed())
	assert.Equal(t, 2*time.Second, cfg.UI.CopiedReset())
	assert.Equal(t, "cipherDefault", cfg.UI.Theme)
}

func TestLoad_NoFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_TOML(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".cipherbot")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
provider = "ollama"

[ollama]
model = "qwen2.5"

[ui]
theme = "terminalGreen"
typing_speed_ms = 10
`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "qwen2.5", cfg.Ollama.Model)
	assert.Equal(t, Default().Ollama.URL, cfg.Ollama.URL, "missing values filled")
	assert.Equal(t, "terminalGreen", cfg.UI.Theme)
	assert.Equal(t, 10, cfg.UI.TypingSpeedMs)
	assert.Equal(t, 2000, cfg.UI.CopiedResetMs)

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".cipherbot")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"server": {"addr": "0.0.0.0:9000"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".cipherbot")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("provider = \n"), 0600))

	cfg, err := Load()
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("provider = \"openai\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "provider", verrs[0].Field)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.UI.Theme = "classicLight"
	cfg.Gemini.APIKey = "secret"
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# cipherbot configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "classicLight", loaded.UI.Theme)
	assert.Equal(t, "secret", loaded.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad provider", func(c *Config) { c.Provider = "openai" }, "provider"},
		{"bad ollama url", func(c *Config) { c.Ollama.URL = "localhost:11434" }, "ollama.url"},
		{"negative timeout", func(c *Config) { c.Ollama.TimeoutSecs = -1 }, "ollama.timeout_secs"},
		{"bad gemini url", func(c *Config) { c.Gemini.BaseURL = "nope" }, "gemini.base_url"},
		{"typing too slow", func(c *Config) { c.UI.TypingSpeedMs = 5000 }, "ui.typing_speed_ms"},
		{"typing zero", func(c *Config) { c.UI.TypingSpeedMs = 0 }, "ui.typing_speed_ms"},
		{"copied too short", func(c *Config) { c.UI.CopiedResetMs = 10 }, "ui.copied_reset_ms"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"rate without burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("CIPHERBOT_THEME", "arcanePurple")
	t.Setenv("CIPHERBOT_ADDR", ":9999")
	t.Setenv("CIPHERBOT_TYPING_SPEED_MS", "15")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "gemini", cfg.Gemini.APIKey, "GEMINI_API_KEY beats GOOGLE_API_KEY")
	assert.Equal(t, "arcanePurple", cfg.UI.Theme)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 15, cfg.UI.TypingSpeedMs)

	t.Setenv("API_KEY", "primary")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "primary", cfg.Gemini.APIKey)
}

func TestApplyEnvOverrides_ModelFollowsProvider(t *testing.T) {
	isolate(t)
	t.Setenv("CIPHERBOT_PROVIDER", "OLLAMA")
	t.Setenv("CIPHERBOT_MODEL", "mistral")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, Default().Gemini.Model, cfg.Gemini.Model)
}

func TestString_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "super-secret"
	out := cfg.String()
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "super-secret", cfg.Gemini.APIKey, "original untouched")
}

func TestPaths(t *testing.T) {
	home := isolate(t)
	cfg := Default()
	assert.Equal(t, filepath.Join(home, ".cipherbot", "themes"), cfg.ThemesDir())
	assert.Equal(t, filepath.Join(home, ".cipherbot", "settings.db"), cfg.StoragePath())

	cfg.UI.ThemesDir = "/tmp/themes"
	cfg.Storage.Path = "/tmp/s.db"
	assert.Equal(t, "/tmp/themes", cfg.ThemesDir())
	assert.Equal(t, "/tmp/s.db", cfg.StoragePath())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestConfig_ConcurrentAccess checks that Global and SetGlobal can be
// called concurrently.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := Default()
			c.UI.Theme = "terminalGreen"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
