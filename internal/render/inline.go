// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"regexp"
	"strings"
)

// =============================================================================
// INLINE TYPES
// =============================================================================

// Inline is one span of formatted text inside a block.
type Inline interface {
	inline()
}

// Text is literal text.
type Text struct {
	Value string
}

// Bold is "**...**" emphasis; its children are formatted recursively.
type Bold struct {
	Children []Inline
}

// Italic is "*...*" emphasis; its children are formatted recursively.
type Italic struct {
	Children []Inline
}

// InlineCode is "`...`" code; its content is never formatted.
type InlineCode struct {
	Value string
}

func (Text) inline()       {}
func (Bold) inline()       {}
func (Italic) inline()     {}
func (InlineCode) inline() {}

// MaxInlineDepth bounds the recursion of nested emphasis. Text nested
// deeper than this is emitted verbatim.
const MaxInlineDepth = 10

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
)

type inlineKind int

const (
	kindBold inlineKind = iota
	kindItalic
	kindCode
)

// inlineMatch is a candidate span: [start, end) of the whole match and
// [innerStart, innerEnd) of its content.
type inlineMatch struct {
	kind                 inlineKind
	start, end           int
	innerStart, innerEnd int
}

// =============================================================================
// FORMATTER
// =============================================================================

// ParseInline formats a single line into inline nodes. Empty input yields
// an empty slice; text without markers yields one Text node.
func ParseInline(text string) []Inline {
	return parseInline(text, 0)
}

func parseInline(text string, depth int) []Inline {
	if depth > MaxInlineDepth {
		return []Inline{Text{Value: text}}
	}

	nodes := make([]Inline, 0)
	rest := text
	for rest != "" {
		m, ok := nextInline(rest)
		if !ok {
			nodes = append(nodes, Text{Value: rest})
			break
		}
		if m.start > 0 {
			nodes = append(nodes, Text{Value: rest[:m.start]})
		}
		inner := rest[m.innerStart:m.innerEnd]
		switch m.kind {
		case kindBold:
			nodes = append(nodes, Bold{Children: parseInline(inner, depth+1)})
		case kindItalic:
			nodes = append(nodes, Italic{Children: parseInline(inner, depth+1)})
		case kindCode:
			nodes = append(nodes, InlineCode{Value: inner})
		}
		rest = rest[m.end:]
	}
	return nodes
}

// nextInline finds the leftmost marker span in s. When several kinds start
// at the same position bold wins over italic, and italic over code.
func nextInline(s string) (inlineMatch, bool) {
	var best inlineMatch
	found := false

	consider := func(m inlineMatch) {
		if !found || m.start < best.start {
			best = m
			found = true
		}
	}

	if loc := boldRe.FindStringSubmatchIndex(s); loc != nil {
		consider(inlineMatch{kind: kindBold, start: loc[0], end: loc[1], innerStart: loc[2], innerEnd: loc[3]})
	}
	if loc := italicRe.FindStringSubmatchIndex(s); loc != nil {
		consider(inlineMatch{kind: kindItalic, start: loc[0], end: loc[1], innerStart: loc[2], innerEnd: loc[3]})
	}
	if m, ok := findInlineCode(s); ok {
		consider(m)
	}
	return best, found
}

// findInlineCode finds the leftmost "`...`" span whose opening and closing
// backticks are not escaped with a backslash. Content must be non-empty.
func findInlineCode(s string) (inlineMatch, bool) {
	for open := 0; open < len(s); open++ {
		if s[open] != '`' || escaped(s, open) {
			continue
		}
		nl := strings.IndexByte(s[open+1:], '\n')
		limit := len(s)
		if nl >= 0 {
			limit = open + 1 + nl
		}
		for end := open + 2; end < limit; end++ {
			if s[end] == '`' && !escaped(s, end) {
				return inlineMatch{
					kind:       kindCode,
					start:      open,
					end:        end + 1,
					innerStart: open + 1,
					innerEnd:   end,
				}, true
			}
		}
	}
	return inlineMatch{}, false
}

func escaped(s string, i int) bool {
	return i > 0 && s[i-1] == '\\'
}

// PlainText flattens inline nodes back to their visible text.
func PlainText(nodes []Inline) string {
	var sb strings.Builder
	writePlain(&sb, nodes)
	return sb.String()
}

func writePlain(sb *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Value)
		case Bold:
			writePlain(sb, n.Children)
		case Italic:
			writePlain(sb, n.Children)
		case InlineCode:
			sb.WriteString(n.Value)
		}
	}
}
