// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
//
// A Palette maps CSS variable names to colors in two groups: UI colors
// ("--bg-primary", "--message-bot-bg", ...) and syntax colors, exposed as
// "--hljs-<kind>-color" so that the highlighter's span classes resolve
// against them.
//
// # Sources
//
//   - Built-in palettes: cipherDefault, terminalGreen, arcanePurple, classicLight
//   - User palettes: TOML files in the themes directory, named "user:<file>"
//   - Chroma palettes: "chroma:<style>" derives syntax colors from a chroma style
//
// # Lifecycle
//
// Manager resolves names, persists the selection under StorageKey and is the
// only writer of the applied palette:
//
//	m := theme.NewManager(store, theme.WithUserDir(dir))
//	m.Load()
//	m.Set("terminalGreen")
//	css := m.Current().CSS()
package theme
