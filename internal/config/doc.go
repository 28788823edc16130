// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for cipherbot.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - GeminiConfig, OllamaConfig: Chat provider settings
//   - UIConfig: Theme and animation timing
//   - ServerConfig: Browser UI listener and rate limits
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (API_KEY, GEMINI_API_KEY, CIPHERBOT_*)
//   - ~/.cipherbot/config.toml
//   - ~/.cipherbot/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	speed := cfg.UI.TypingSpeed()
package config
