// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// TERMINAL STYLES
// =============================================================================

// TermStyles holds the lipgloss styles used for ANSI output. The zero value
// renders unstyled text.
type TermStyles struct {
	Text       lipgloss.Style
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	InlineCode lipgloss.Style
	Quote      lipgloss.Style
	QuoteBar   lipgloss.Style
	Bullet     lipgloss.Style
	CodeHeader lipgloss.Style
	CodeBody   lipgloss.Style
	Copied     lipgloss.Style
	Typing     lipgloss.Style
	Cursor     lipgloss.Style
	Syntax     map[TokenKind]lipgloss.Style
}

// CursorGlyph is drawn after the revealed text while a reply streams.
const CursorGlyph = "▋"

// minCodeWidth keeps code readable on very narrow terminals.
const minCodeWidth = 20

// =============================================================================
// TERMINAL RENDERING
// =============================================================================

// TerminalMessage renders a message for the terminal, honouring the typing
// placeholder and cursor flags. Rendering failures fall back to raw text.
func TerminalMessage(st MessageState, blocks []Block, styles TermStyles, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("terminal render failed", "id", st.ID, "panic", r)
			out = st.Text
		}
	}()

	if st.Typing {
		return styles.Typing.Render(TypingPlaceholder)
	}
	body := Terminal(blocks, styles, width)
	if st.Cursor {
		body += styles.Cursor.Render(CursorGlyph)
	}
	return body
}

// Terminal renders blocks as ANSI text, one or more lines per block.
// Code lines wider than width are truncated.
func Terminal(blocks []Block, styles TermStyles, width int) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b := b.(type) {
		case Paragraph:
			lines = append(lines, terminalInline(b.Inlines, styles, styles.Text))
		case Blank:
			lines = append(lines, "")
		case ListItem:
			lines = append(lines, "  "+styles.Bullet.Render(b.Bullet)+" "+terminalInline(b.Inlines, styles, styles.Text))
		case Blockquote:
			lines = append(lines, styles.QuoteBar.Render("│")+" "+terminalInline(b.Inlines, styles, styles.Quote))
		case CodeBlock:
			lines = append(lines, terminalCode(b, styles, width))
		}
	}
	return strings.Join(lines, "\n")
}

func terminalInline(nodes []Inline, styles TermStyles, base lipgloss.Style) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(base.Render(n.Value))
		case Bold:
			sb.WriteString(terminalInline(n.Children, styles, base.Inherit(styles.Bold).Bold(true)))
		case Italic:
			sb.WriteString(terminalInline(n.Children, styles, base.Inherit(styles.Italic).Italic(true)))
		case InlineCode:
			sb.WriteString(styles.InlineCode.Render(n.Value))
		}
	}
	return sb.String()
}

func terminalCode(b CodeBlock, styles TermStyles, width int) string {
	codeWidth := width - 2
	if codeWidth < minCodeWidth {
		codeWidth = minCodeWidth
	}

	header := styles.CodeHeader.Render(" " + b.Label() + " ")
	if b.Copied {
		header += " " + styles.Copied.Render("Copied!")
	}

	var out []string
	out = append(out, header)

	var line strings.Builder
	used := 0
	flush := func() {
		out = append(out, "  "+line.String())
		line.Reset()
		used = 0
	}

	for _, tok := range Tokenize(b.Code, b.Language) {
		style, ok := styles.Syntax[tok.Kind]
		if !ok {
			style = styles.CodeBody
		}
		parts := strings.Split(tok.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				flush()
			}
			if part == "" {
				continue
			}
			remaining := codeWidth - used
			if remaining <= 0 {
				continue
			}
			if w := runewidth.StringWidth(part); w > remaining {
				part = runewidth.Truncate(part, remaining, "…")
			}
			used += runewidth.StringWidth(part)
			line.WriteString(style.Render(part))
		}
	}
	if b.Code != "" {
		flush()
	}
	return strings.Join(out, "\n")
}
