// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles maps Cipher Bot palettes onto terminal styles.
package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jeranaias/cipherbot/internal/render"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// =============================================================================
// COLOR TESTS
// =============================================================================

func TestParseColor(t *testing.T) {
	black := colorful.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}

	tests := []struct {
		name  string
		value string
		base  colorful.Color
		want  string
		ok    bool
	}{
		{"six digit hex", "#1a2b3c", black, "#1a2b3c", true},
		{"three digit hex", "#fff", black, "#ffffff", true},
		{"opaque hex with alpha", "#ff0000ff", black, "#ff0000", true},
		{"transparent hex", "#ff000000", white, "#ffffff", true},
		{"rgb", "rgb(255, 0, 0)", black, "#ff0000", true},
		{"rgba blends over base", "rgba(255,255,255,0.5)", black, "#808080", true},
		{"rgba without spaces", "rgba(0,0,0,0)", white, "#ffffff", true},
		{"gradient", "linear-gradient(#000, #fff)", black, "", false},
		{"named", "red", black, "", false},
		{"bad hex", "#zzz", black, "", false},
		{"bad rgb", "rgb(1,2)", black, "", false},
		{"empty", "", black, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseColor(tt.value, tt.base)
			if ok != tt.ok {
				t.Fatalf("ParseColor(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && c.Hex() != tt.want {
				t.Errorf("ParseColor(%q) = %s, want %s", tt.value, c.Hex(), tt.want)
			}
		})
	}
}

func TestColorSetFallsBack(t *testing.T) {
	p := theme.Default()
	p.Colors["--header-text-from"] = "linear-gradient(red, blue)"
	cs := newColorSet(p)

	want := cs.get("--accent-primary")
	if got := cs.get("--header-text-from", "--accent-primary"); got != want {
		t.Errorf("fallback color = %v, want %v", got, want)
	}
	if got := cs.get("--missing"); got != lipgloss.Color(fallbackForeground.Hex()) {
		t.Errorf("missing key = %v, want default foreground", got)
	}
}

func TestIsDark(t *testing.T) {
	for _, name := range []string{"cipherDefault", "terminalGreen", "arcanePurple"} {
		p, _ := theme.Builtin(name)
		if !IsDark(p) {
			t.Errorf("IsDark(%s) = false, want true", name)
		}
	}
	light, _ := theme.Builtin("classicLight")
	if IsDark(light) {
		t.Error("IsDark(classicLight) = true, want false")
	}
}

// =============================================================================
// THEME TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	for _, name := range theme.BuiltinNames() {
		p, _ := theme.Builtin(name)
		th := NewTheme(p)

		if th.Palette.Name != name {
			t.Errorf("Palette.Name = %q, want %q", th.Palette.Name, name)
		}
		if th.HeaderTitle.Render("Cipher Bot") == "" {
			t.Errorf("%s: HeaderTitle renders empty", name)
		}
		if len(th.Markdown.Syntax) != 6 {
			t.Errorf("%s: %d syntax styles, want 6", name, len(th.Markdown.Syntax))
		}
	}
}

func TestThemeMarkdownRendersCode(t *testing.T) {
	th := NewTheme(theme.Default())
	blocks := render.Parse("```js\nconst a = 1;\n```", render.ParseOptions{AllowFences: true})

	out := render.Terminal(blocks, th.Markdown, 80)
	if !strings.Contains(out, "js") {
		t.Errorf("code header missing language: %q", out)
	}
	for _, part := range []string{"const", "a", "1"} {
		if !strings.Contains(out, part) {
			t.Errorf("output missing %q: %q", part, out)
		}
	}
}

func TestGetLayoutMode(t *testing.T) {
	th := NewTheme(theme.Default())
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		th.SetSize(tt.width, 24)
		if got := th.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}

// =============================================================================
// ANIMATION TESTS
// =============================================================================

func TestSpinnerConfig(t *testing.T) {
	if got := LineSpinner.Duration(); got != 100*time.Millisecond {
		t.Errorf("LineSpinner.Duration() = %v, want 100ms", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS Duration() = %v, want 1s", got)
	}

	s := DotsSpinner.Bubbles()
	if len(s.Frames) != len(DotsSpinner.Frames) {
		t.Errorf("Bubbles() frames = %d, want %d", len(s.Frames), len(DotsSpinner.Frames))
	}
	if s.FPS != DotsSpinner.Duration() {
		t.Errorf("Bubbles() FPS = %v, want %v", s.FPS, DotsSpinner.Duration())
	}
}
