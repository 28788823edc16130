// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles maps Cipher Bot palettes onto terminal styles.
package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jeranaias/cipherbot/internal/theme"
)

// =============================================================================
// PALETTE COLORS
// =============================================================================

// Fallbacks used when a palette value cannot be shown in a terminal.
var (
	fallbackBackground = colorful.Color{R: 0.07, G: 0.07, B: 0.1}
	fallbackForeground = colorful.Color{R: 0.9, G: 0.9, B: 0.92}
)

// ParseColor converts a palette value to an opaque color. Hex values
// ("#rgb", "#rrggbb", "#rrggbbaa") and rgb()/rgba() are understood;
// translucent colors are blended over base. ok is false for anything else,
// such as gradients or named colors.
func ParseColor(value string, base colorful.Color) (c colorful.Color, ok bool) {
	value = strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(value, "#"):
		hex := value
		alpha := 1.0
		if len(hex) == 9 {
			var a uint8
			if _, err := fmt.Sscanf(hex[7:], "%02x", &a); err != nil {
				return colorful.Color{}, false
			}
			hex, alpha = hex[:7], float64(a)/255
		}
		c, err := colorful.Hex(hex)
		if err != nil {
			return colorful.Color{}, false
		}
		return base.BlendRgb(c, alpha).Clamped(), true

	case strings.HasPrefix(value, "rgb"):
		open, end := strings.IndexByte(value, '('), strings.LastIndexByte(value, ')')
		if open < 0 || end < open {
			return colorful.Color{}, false
		}
		parts := strings.Split(value[open+1:end], ",")
		if len(parts) != 3 && len(parts) != 4 {
			return colorful.Color{}, false
		}
		var rgb [3]float64
		for i := range rgb {
			if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%g", &rgb[i]); err != nil {
				return colorful.Color{}, false
			}
		}
		alpha := 1.0
		if len(parts) == 4 {
			if _, err := fmt.Sscanf(strings.TrimSpace(parts[3]), "%g", &alpha); err != nil {
				return colorful.Color{}, false
			}
		}
		c := colorful.Color{R: rgb[0] / 255, G: rgb[1] / 255, B: rgb[2] / 255}
		return base.BlendRgb(c, alpha).Clamped(), true
	}
	return colorful.Color{}, false
}

// colorSet resolves palette keys to terminal colors.
type colorSet struct {
	p    theme.Palette
	base colorful.Color
}

func newColorSet(p theme.Palette) colorSet {
	base, ok := ParseColor(p.Color("--bg-primary"), fallbackBackground)
	if !ok {
		base = fallbackBackground
	}
	return colorSet{p: p, base: base}
}

// get returns the terminal color of a palette key, or the first fallback key
// that resolves. Unresolvable keys yield the default foreground.
func (cs colorSet) get(keys ...string) lipgloss.Color {
	for _, key := range keys {
		if c, ok := ParseColor(cs.p.Color(key), cs.base); ok {
			return lipgloss.Color(c.Hex())
		}
	}
	return lipgloss.Color(fallbackForeground.Hex())
}

// syntax returns the terminal color of a syntax palette value.
func (cs colorSet) syntax(value string, fallbackKeys ...string) lipgloss.Color {
	if c, ok := ParseColor(value, cs.base); ok {
		return lipgloss.Color(c.Hex())
	}
	return cs.get(fallbackKeys...)
}

// IsDark reports whether the palette has a dark background.
func IsDark(p theme.Palette) bool {
	base := newColorSet(p).base
	l, _, _ := base.Lab()
	return l < 0.5
}
