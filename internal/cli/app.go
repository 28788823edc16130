// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for the commands: settings store, theme manager,
// provider and chat controller.

package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeranaias/cipherbot/internal/chat"
	"github.com/jeranaias/cipherbot/internal/config"
	"github.com/jeranaias/cipherbot/internal/gemini"
	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/ollama"
	"github.com/jeranaias/cipherbot/internal/storage"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// app holds the long-lived pieces a command needs.
type app struct {
	cfg      *config.Config
	settings *storage.Settings
	themes   *theme.Manager
	watcher  *theme.Watcher
}

// appOptions selects the optional parts of an app.
type appOptions struct {
	// watchThemes hot-reloads user palettes; only long-running commands
	// need it.
	watchThemes bool
}

// openApp opens the settings store and loads the themes. A settings store
// that cannot be opened is logged and replaced by an in-memory one, so the
// selected theme is simply not remembered.
func openApp(cfg *config.Config, themeFlag string, opts appOptions) *app {
	a := &app{cfg: cfg}

	var store theme.Store
	settings, err := storage.Open(cfg.StoragePath())
	if err != nil {
		slog.Warn("settings store unavailable, theme selection will not persist",
			"path", cfg.StoragePath(), "error", err)
	} else {
		a.settings = settings
		store = settings
	}

	a.themes = theme.NewManager(store, theme.WithUserDir(cfg.ThemesDir()))
	if err := a.themes.Load(); err != nil {
		slog.Warn("failed to load theme selection", "error", err)
	}
	a.selectInitialTheme(store, themeFlag)

	if opts.watchThemes {
		a.watcher = theme.NewWatcher(a.themes, theme.DefaultDebounce)
		if err := a.watcher.Start(); err != nil {
			slog.Debug("theme watcher not started", "dir", cfg.ThemesDir(), "error", err)
			a.watcher = nil
		}
	}
	return a
}

// selectInitialTheme applies --theme, or the configured theme when nothing
// has been stored yet.
func (a *app) selectInitialTheme(store theme.Store, themeFlag string) {
	name := themeFlag
	if name == "" && store != nil {
		if _, stored, err := store.Get(theme.StorageKey); err == nil && !stored {
			name = a.cfg.UI.Theme
		}
	}
	if name == "" || name == a.themes.Current().Name {
		return
	}
	if _, err := a.themes.Set(name); err != nil {
		slog.Warn("failed to save theme", "theme", name, "error", err)
	}
}

// newController creates a chat controller for the configured provider.
func (a *app) newController() (*chat.Controller, error) {
	provider, err := newProvider(a.cfg)
	if err != nil {
		return nil, err
	}
	return chat.New(provider,
		chat.WithCadence(a.cfg.UI.TypingSpeed()),
		chat.WithCopiedReset(a.cfg.UI.CopiedReset()),
		chat.WithThemes(a.themes),
	), nil
}

// Close stops the watcher and closes the settings store.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.settings != nil {
		if err := a.settings.Close(); err != nil {
			slog.Warn("failed to close settings store", "error", err)
		}
	}
}

// =============================================================================
// PROVIDERS
// =============================================================================

// newProvider creates the provider named by cfg.Provider.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	instruction := cfg.Gemini.SystemInstruction
	if instruction == "" {
		instruction = gemini.DefaultSystemInstruction
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return gemini.NewProvider(gemini.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			SystemInstruction: instruction,
			BaseURL:           cfg.Gemini.BaseURL,
		}), nil
	case "ollama":
		return ollama.NewProvider(&ollama.ClientConfig{
			BaseURL:      cfg.Ollama.URL,
			Timeout:      cfg.Ollama.Timeout(),
			DefaultModel: cfg.Ollama.Model,
			SystemPrompt: instruction,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, must be one of: %s",
			cfg.Provider, strings.Join(config.Providers, ", "))
	}
}
