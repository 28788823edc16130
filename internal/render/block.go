// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/cipherbot/internal/model"
)

// =============================================================================
// BLOCK TYPES
// =============================================================================

// Block is one line-level display element.
type Block interface {
	block()
}

// Paragraph is a plain line of inline-formatted text.
type Paragraph struct {
	Inlines []Inline
}

// Blank is a whitespace-only line rendered as vertical space.
type Blank struct{}

// ListItem is a bulleted or numbered line. Bullet is "•" for "*" and "-"
// markers and the literal ordinal (for example "3.") otherwise.
type ListItem struct {
	Bullet  string
	Inlines []Inline
}

// Blockquote is a single "> " line.
type Blockquote struct {
	Inlines []Inline
}

// CodeBlock is a fenced code block. Language is empty when the fence had
// no tag. Copied is set by callers that track the copy-to-clipboard flag.
type CodeBlock struct {
	Language string
	Code     string
	Copied   bool
}

func (Paragraph) block()  {}
func (Blank) block()      {}
func (ListItem) block()   {}
func (Blockquote) block() {}
func (CodeBlock) block()  {}

// Bullet is the glyph used for unordered list items.
const Bullet = "•"

// DefaultCodeLabel is shown in the code block header when no language is set.
const DefaultCodeLabel = "code"

// Label returns the header label for the code block.
func (c CodeBlock) Label() string {
	if c.Language == "" {
		return DefaultCodeLabel
	}
	return c.Language
}

// =============================================================================
// PARSER
// =============================================================================

var (
	fenceOpenRe  = regexp.MustCompile("^```(\\w*)\\s*$")
	fenceCloseRe = regexp.MustCompile("^```\\s*$")
	quoteRe      = regexp.MustCompile(`^>\s(.*)`)
	listRe       = regexp.MustCompile(`^(\*|-|\d+\.)\s+(.*)`)
)

// ParseOptions controls which block kinds are recognised.
type ParseOptions struct {
	// AllowFences enables fenced code blocks. Only bot messages set it;
	// in user messages a fence line is an ordinary paragraph.
	AllowFences bool
}

// ParseMessage parses a message's text with the options for its sender.
func ParseMessage(msg model.Message) []Block {
	return Parse(msg.Text, ParseOptions{AllowFences: msg.IsBot()})
}

// Parse splits text into blocks, one block per line except for fenced code
// blocks, which span from the opening fence to the closing fence (consumed)
// or to the end of the input when the fence is still open.
func Parse(text string, opts ParseOptions) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if opts.AllowFences {
			if m := fenceOpenRe.FindStringSubmatch(line); m != nil {
				var code []string
				for i++; i < len(lines) && !fenceCloseRe.MatchString(lines[i]); i++ {
					code = append(code, lines[i])
				}
				// i now sits on the closing fence, or past the end.
				blocks = append(blocks, CodeBlock{
					Language: m[1],
					Code:     strings.Join(code, "\n"),
				})
				continue
			}
		}

		if m := quoteRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Blockquote{Inlines: ParseInline(m[1])})
			continue
		}

		if m := listRe.FindStringSubmatch(line); m != nil {
			bullet := m[1]
			if bullet == "*" || bullet == "-" {
				bullet = Bullet
			}
			blocks = append(blocks, ListItem{Bullet: bullet, Inlines: ParseInline(m[2])})
			continue
		}

		if strings.TrimSpace(line) == "" {
			blocks = append(blocks, Blank{})
			continue
		}

		blocks = append(blocks, Paragraph{Inlines: ParseInline(line)})
	}

	return blocks
}

// BlockKey identifies a block within a message. It is stable for as long as
// the blocks before it keep their shape, which holds while text only grows.
func BlockKey(messageID string, index int) string {
	return fmt.Sprintf("%s-%d", messageID, index)
}

// CodeBlocks returns the code blocks keyed by their block index.
func CodeBlocks(blocks []Block) map[int]CodeBlock {
	out := make(map[int]CodeBlock)
	for i, b := range blocks {
		if cb, ok := b.(CodeBlock); ok {
			out[i] = cb
		}
	}
	return out
}
