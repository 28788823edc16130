// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles maps Cipher Bot palettes onto terminal styles.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/cipherbot/internal/render"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// Theme holds all the styled components of the terminal UI for one palette.
// It detects the terminal's color capability once, at construction.
type Theme struct {
	// Palette is the source of every color below.
	Palette theme.Palette

	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style

	// Markdown styles the blocks inside a message.
	Markdown render.TermStyles

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// SPINNER AND ERROR STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	ErrorBox     lipgloss.Style
	ErrorIcon    lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorTip     lipgloss.Style
}

// NewTheme creates the styles for palette p.
func NewTheme(p theme.Palette) *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		Palette:      p,
		IsDark:       IsDark(p),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles from the palette.
func (t *Theme) initStyles() {
	c := newColorSet(t.Palette)

	accent := c.get("--accent-primary")
	textSecondary := c.get("--text-secondary")
	textMuted := c.get("--text-tertiary", "--text-secondary")

	t.App = lipgloss.NewStyle()

	// Header
	t.Header = lipgloss.NewStyle().
		Background(c.get("--header-bg", "--bg-secondary")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c.get("--header-border", "--border-primary")).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(c.get("--header-text-from", "--accent-primary"))

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(c.get("--header-text-to", "--text-secondary")).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(c.get("--message-user-icon-bg", "--accent-secondary"))

	t.BotLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(c.get("--message-bot-icon-bg", "--accent-primary"))

	t.UserBubble = lipgloss.NewStyle().
		Foreground(c.get("--message-user-text")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c.get("--message-user-bg", "--accent-secondary")).
		Padding(0, 1).
		MarginLeft(4)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(c.get("--message-bot-text")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c.get("--message-bot-bg", "--border-primary")).
		Padding(0, 1).
		MarginRight(4)

	t.Markdown = t.markdownStyles(c)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderBottom(true).
		BorderForeground(c.get("--input-field-border", "--input-area-border")).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(c.get("--input-send-button-bg", "--accent-primary")).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(c.get("--input-field-text", "--text-primary"))

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(c.get("--input-field-placeholder", "--text-tertiary")).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(textSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(textMuted)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(accent)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(textSecondary)

	// Error banner
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c.get("--error-border")).
		Padding(0, 1)

	t.ErrorIcon = lipgloss.NewStyle().
		Foreground(c.get("--error-text-icon")).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(c.get("--error-text-primary", "--text-primary"))

	t.ErrorTip = lipgloss.NewStyle().
		Foreground(c.get("--error-dismiss-text", "--text-secondary")).
		Italic(true)

}

// markdownStyles builds the message block styles.
func (t *Theme) markdownStyles(c colorSet) render.TermStyles {
	codeText := c.get("--code-block-text", "--text-primary")
	syn := t.Palette.Syntax

	return render.TermStyles{
		Text:       lipgloss.NewStyle(),
		Bold:       lipgloss.NewStyle().Bold(true),
		Italic:     lipgloss.NewStyle().Italic(true),
		InlineCode: lipgloss.NewStyle().Foreground(c.get("--inline-code-text", "--code-block-text")),
		Quote:      lipgloss.NewStyle().Foreground(c.get("--blockquote-text-color", "--text-secondary")).Italic(true),
		QuoteBar:   lipgloss.NewStyle().Foreground(c.get("--blockquote-border-color", "--border-primary")),
		Bullet:     lipgloss.NewStyle().Foreground(c.get("--list-bullet-color", "--accent-primary")),
		CodeHeader: lipgloss.NewStyle().
			Foreground(c.get("--code-block-header-text", "--text-secondary")).
			Background(c.get("--code-block-header-bg", "--bg-tertiary")).
			Bold(true),
		CodeBody: lipgloss.NewStyle().Foreground(codeText),
		Copied:   lipgloss.NewStyle().Foreground(c.get("--code-block-header-hover-text", "--accent-primary")).Bold(true),
		Typing:   lipgloss.NewStyle().Foreground(c.get("--message-typing-indicator", "--text-secondary")).Italic(true),
		Cursor:   lipgloss.NewStyle().Foreground(c.get("--message-typing-indicator", "--accent-primary")).Blink(true),
		Syntax: map[render.TokenKind]lipgloss.Style{
			render.TokenKeyword:     lipgloss.NewStyle().Foreground(c.syntax(syn.Keyword, "--accent-primary")).Bold(true),
			render.TokenString:      lipgloss.NewStyle().Foreground(c.syntax(syn.String, "--code-block-text")),
			render.TokenComment:     lipgloss.NewStyle().Foreground(c.syntax(syn.Comment, "--text-tertiary")).Italic(true),
			render.TokenNumber:      lipgloss.NewStyle().Foreground(c.syntax(syn.Number, "--code-block-text")),
			render.TokenFunction:    lipgloss.NewStyle().Foreground(c.syntax(syn.Function, "--accent-secondary")),
			render.TokenPunctuation: lipgloss.NewStyle().Foreground(c.syntax(syn.Punctuation, "--code-block-text")),
		},
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
