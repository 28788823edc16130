// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
package theme

import (
	"maps"
	"strings"
)

// =============================================================================
// PALETTE
// =============================================================================

// ColorKeys lists the UI color variables in display order.
var ColorKeys = []string{
	"--bg-primary", "--bg-secondary", "--bg-tertiary",
	"--text-primary", "--text-secondary", "--text-tertiary",
	"--accent-primary", "--accent-primary-hover",
	"--accent-secondary", "--accent-secondary-hover",
	"--border-primary", "--border-secondary",
	"--header-bg", "--header-border", "--header-text-from", "--header-text-to",
	"--chat-bg-gradient-from", "--chat-bg-gradient-to",
	"--message-user-bg", "--message-user-text",
	"--message-bot-bg", "--message-bot-text",
	"--message-bot-icon-bg", "--message-user-icon-bg",
	"--message-typing-indicator",
	"--input-area-bg", "--input-area-border",
	"--input-field-bg", "--input-field-border", "--input-field-text", "--input-field-placeholder",
	"--input-send-button-bg", "--input-send-button-hover-bg", "--input-send-button-text",
	"--code-block-header-bg", "--code-block-header-text", "--code-block-header-hover-text",
	"--code-block-bg", "--code-block-text",
	"--inline-code-bg", "--inline-code-text",
	"--list-bullet-color", "--blockquote-border-color", "--blockquote-text-color",
	"--error-bg", "--error-border", "--error-text-primary", "--error-text-icon",
	"--error-dismiss-text", "--error-dismiss-hover-text",
	"--scrollbar-thumb-bg", "--scrollbar-track-bg", "--scrollbar-thumb-hover-bg",
}

// Syntax holds the code highlighting colors.
type Syntax struct {
	Keyword     string `toml:"keyword" json:"keyword"`
	String      string `toml:"string" json:"string"`
	Comment     string `toml:"comment" json:"comment"`
	Number      string `toml:"number" json:"number"`
	Function    string `toml:"function" json:"function"`
	Operator    string `toml:"operator" json:"operator"`
	Punctuation string `toml:"punctuation" json:"punctuation"`
	ClassName   string `toml:"className" json:"className"`
	Tag         string `toml:"tag" json:"tag"`
	Attr        string `toml:"attr" json:"attr"`
	Value       string `toml:"value" json:"value"`
}

// entries returns the syntax colors keyed by their source names, in order.
func (s Syntax) entries() []Var {
	return []Var{
		{"keyword", s.Keyword},
		{"string", s.String},
		{"comment", s.Comment},
		{"number", s.Number},
		{"function", s.Function},
		{"operator", s.Operator},
		{"punctuation", s.Punctuation},
		{"className", s.ClassName},
		{"tag", s.Tag},
		{"attr", s.Attr},
		{"value", s.Value},
	}
}

// merge returns s with every empty field taken from base.
func (s Syntax) merge(base Syntax) Syntax {
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Syntax{
		Keyword:     pick(s.Keyword, base.Keyword),
		String:      pick(s.String, base.String),
		Comment:     pick(s.Comment, base.Comment),
		Number:      pick(s.Number, base.Number),
		Function:    pick(s.Function, base.Function),
		Operator:    pick(s.Operator, base.Operator),
		Punctuation: pick(s.Punctuation, base.Punctuation),
		ClassName:   pick(s.ClassName, base.ClassName),
		Tag:         pick(s.Tag, base.Tag),
		Attr:        pick(s.Attr, base.Attr),
		Value:       pick(s.Value, base.Value),
	}
}

// Palette is a complete theme.
type Palette struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Colors      map[string]string `json:"colors"`
	Syntax      Syntax            `json:"syntax"`
}

// Var is one CSS custom property.
type Var struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Color returns the value of a UI color variable, or "" if unset.
func (p Palette) Color(key string) string {
	return p.Colors[key]
}

// Clone returns a deep copy of the palette.
func (p Palette) Clone() Palette {
	p.Colors = maps.Clone(p.Colors)
	return p
}

// CSSVars returns every variable of the palette: UI colors in ColorKeys
// order followed by "--hljs-<kind>-color" syntax colors. Empty values are
// omitted.
func (p Palette) CSSVars() []Var {
	vars := make([]Var, 0, len(ColorKeys)+11)
	for _, key := range ColorKeys {
		if v := p.Colors[key]; v != "" {
			vars = append(vars, Var{Name: key, Value: v})
		}
	}
	for _, e := range p.Syntax.entries() {
		if e.Value != "" {
			vars = append(vars, Var{Name: SyntaxVar(e.Name), Value: e.Value})
		}
	}
	return vars
}

// SyntaxVar returns the CSS variable name of a syntax color key.
func SyntaxVar(key string) string {
	return "--hljs-" + strings.ToLower(key) + "-color"
}

// CSS renders the palette as a ":root" rule.
func (p Palette) CSS() string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	for _, v := range p.CSSVars() {
		sb.WriteString("  ")
		sb.WriteString(v.Name)
		sb.WriteString(": ")
		sb.WriteString(v.Value)
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}
