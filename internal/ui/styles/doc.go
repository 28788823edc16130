// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles maps Cipher Bot palettes onto terminal styles.

The browser UI reads palettes as CSS custom properties; the terminal UI gets
the same palettes through this package, so a theme change shows up in both
front ends.

# Colors (colors.go)

Palette values are CSS colors. ParseColor understands the hex and
rgb()/rgba() forms used by the built-in and user palettes and blends
translucent values over the palette background, since terminals have no
alpha channel. Missing or unsupported values fall back to related keys, for
example --header-text-from falls back to --accent-primary.

# Theme (theme.go)

NewTheme builds every lipgloss style of the UI from one palette:

	t := styles.NewTheme(manager.Current())
	fmt.Println(t.HeaderTitle.Render("Cipher Bot"))

Theme.Markdown is the render.TermStyles used to draw message blocks,
including per-token syntax colors for code.

# Animations (animations.go)

SpinnerConfig describes spinner frames; Bubbles converts one for the
bubbles spinner component.
*/
package styles
