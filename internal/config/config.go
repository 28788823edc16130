// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cipherbot.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/cipherbot/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cipherbot configuration.
type Config struct {
	// Provider selects the chat backend: "gemini" or "ollama"
	Provider string `toml:"provider" json:"provider"`

	Gemini  GeminiConfig  `toml:"gemini" json:"gemini"`
	Ollama  OllamaConfig  `toml:"ollama" json:"ollama"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// GeminiConfig contains Google Gemini settings.
type GeminiConfig struct {
	// APIKey is the Gemini API key (usually supplied via API_KEY)
	APIKey string `toml:"api_key" json:"api_key"`
	// Model is the Gemini model name
	Model string `toml:"model" json:"model"`
	// SystemInstruction replaces the built-in persona when set
	SystemInstruction string `toml:"system_instruction" json:"system_instruction"`
	// BaseURL overrides the API endpoint (testing and proxies)
	BaseURL string `toml:"base_url" json:"base_url,omitempty"`
}

// OllamaConfig contains local Ollama settings.
type OllamaConfig struct {
	// URL is the Ollama server address
	URL string `toml:"url" json:"url"`
	// Model is the local model name
	Model string `toml:"model" json:"model"`
	// TimeoutSecs bounds a whole streamed reply
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is the palette selected when none has been stored yet
	Theme string `toml:"theme" json:"theme"`
	// ThemesDir holds user palette files (empty = ~/.cipherbot/themes)
	ThemesDir string `toml:"themes_dir" json:"themes_dir,omitempty"`
	// TypingSpeedMs is the reveal cadence per character
	TypingSpeedMs int `toml:"typing_speed_ms" json:"typing_speed_ms"`
	// CopiedResetMs is how long a copy button shows "Copied!"
	CopiedResetMs int `toml:"copied_reset_ms" json:"copied_reset_ms"`
}

// ServerConfig contains browser UI server settings.
type ServerConfig struct {
	// Addr is the listen address
	Addr string `toml:"addr" json:"addr"`
	// RateLimit is the sustained POST rate per client in requests/second (0 = unlimited)
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	// RateBurst is the POST burst size per client
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
}

// StorageConfig contains settings persistence options.
type StorageConfig struct {
	// Path is the settings database (empty = ~/.cipherbot/settings.db)
	Path string `toml:"path" json:"path,omitempty"`
}

// LogConfig contains logging options.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// File receives logs instead of stderr when set
	File string `toml:"file" json:"file,omitempty"`
}

// TypingSpeed returns the reveal cadence.
func (u UIConfig) TypingSpeed() time.Duration {
	return time.Duration(u.TypingSpeedMs) * time.Millisecond
}

// CopiedReset returns how long a copied marker stays visible.
func (u UIConfig) CopiedReset() time.Duration {
	return time.Duration(u.CopiedResetMs) * time.Millisecond
}

// Timeout returns the streamed reply timeout, or zero for none.
func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSecs) * time.Second
}

// SlogLevel converts the configured level for log/slog.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Provider: "gemini",

		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},

		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			Model:       "llama3.2",
			TimeoutSecs: 300,
		},

		UI: UIConfig{
			Theme:         "cipherDefault",
			TypingSpeedMs: 30,
			CopiedResetMs: 2000,
		},

		Server: ServerConfig{
			Addr:      "127.0.0.1:8787",
			RateLimit: 2,
			RateBurst: 5,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cipherbot configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cipherbot"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ThemesDir returns the user palette directory.
func (c *Config) ThemesDir() string {
	if c.UI.ThemesDir != "" {
		return c.UI.ThemesDir
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "themes")
}

// StoragePath returns the settings database path.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(".cipherbot", "settings.db")
	}
	return filepath.Join(dir, "settings.db")
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files hold API keys and should be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	// A file that failed to parse may have partially filled cfg.
	if loadErr != nil {
		cfg = Default()
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finish applies env overrides and validates a loaded config.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions on config", "path", path, "error", err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys ignored", "path", path, "keys", fmt.Sprint(undecoded))
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions on config", "path", path, "error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Provider == "" {
		cfg.Provider = defaults.Provider
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaults.Gemini.Model
	}
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = defaults.Ollama.URL
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = defaults.Ollama.Model
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.TypingSpeedMs == 0 {
		cfg.UI.TypingSpeedMs = defaults.UI.TypingSpeedMs
	}
	if cfg.UI.CopiedResetMs == 0 {
		cfg.UI.CopiedResetMs = defaults.UI.CopiedResetMs
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.RateBurst == 0 && cfg.Server.RateLimit > 0 {
		cfg.Server.RateBurst = defaults.Server.RateBurst
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# cipherbot configuration file\n")
	sb.WriteString("# API keys are better supplied via API_KEY or GEMINI_API_KEY\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Providers lists the accepted provider names.
var Providers = []string{"gemini", "ollama"}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch strings.ToLower(c.Provider) {
	case "gemini", "ollama":
	default:
		errs = append(errs, ValidationError{
			Field:   "provider",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: %s", c.Provider, strings.Join(Providers, ", ")),
		})
	}

	if c.Ollama.URL != "" {
		u, err := url.Parse(c.Ollama.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Ollama.URL),
			})
		}
	}
	if c.Ollama.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "ollama.timeout_secs", Message: "cannot be negative"})
	}

	if c.Gemini.BaseURL != "" {
		if u, err := url.Parse(c.Gemini.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "gemini.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Gemini.BaseURL),
			})
		}
	}

	if c.UI.TypingSpeedMs < 1 || c.UI.TypingSpeedMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "ui.typing_speed_ms",
			Message: fmt.Sprintf("must be between 1 and 1000, got %d", c.UI.TypingSpeedMs),
		})
	}
	if c.UI.CopiedResetMs < 100 || c.UI.CopiedResetMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "ui.copied_reset_ms",
			Message: fmt.Sprintf("must be between 100 and 60000, got %d", c.UI.CopiedResetMs),
		})
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "cannot be negative"})
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		errs = append(errs, ValidationError{Field: "server.rate_burst", Message: "must be at least 1 when rate_limit is set"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// credentialEnv lists the API key variables, highest precedence first.
var credentialEnv = []string{"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - API_KEY, GEMINI_API_KEY, GOOGLE_API_KEY: gemini.api_key (first set wins)
//   - CIPHERBOT_PROVIDER: overrides provider
//   - CIPHERBOT_MODEL: overrides the model of the selected provider
//   - CIPHERBOT_OLLAMA_URL: overrides ollama.url
//   - CIPHERBOT_THEME: overrides ui.theme
//   - CIPHERBOT_ADDR: overrides server.addr
//   - CIPHERBOT_TYPING_SPEED_MS: overrides ui.typing_speed_ms
func (c *Config) ApplyEnvOverrides() {
	for _, name := range credentialEnv {
		if key := os.Getenv(name); key != "" {
			c.Gemini.APIKey = key
			break
		}
	}

	if provider := os.Getenv("CIPHERBOT_PROVIDER"); provider != "" {
		c.Provider = strings.ToLower(provider)
	}

	if model := os.Getenv("CIPHERBOT_MODEL"); model != "" {
		if strings.EqualFold(c.Provider, "ollama") {
			c.Ollama.Model = model
		} else {
			c.Gemini.Model = model
		}
	}

	if u := os.Getenv("CIPHERBOT_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	if theme := os.Getenv("CIPHERBOT_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if addr := os.Getenv("CIPHERBOT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if speed := os.Getenv("CIPHERBOT_TYPING_SPEED_MS"); speed != "" {
		if ms, err := strconv.Atoi(speed); err == nil {
			c.UI.TypingSpeedMs = ms
		}
	}
}

// =============================================================================
// COPY AND DISPLAY
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Gemini.APIKey != "" {
		safe.Gemini.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			slog.Warn("config load failed, using defaults", "error", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
