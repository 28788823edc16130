// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cipherbot/internal/model"
)

var botOpts = ParseOptions{AllowFences: true}

// =============================================================================
// BLOCK PARSER TESTS
// =============================================================================

func TestParse_FencedCodeBlock(t *testing.T) {
	blocks := Parse("```js\nconst a = 1;\n```", botOpts)
	require.Equal(t, []Block{CodeBlock{Language: "js", Code: "const a = 1;"}}, blocks)
}

func TestParse_FenceSuppressedForUser(t *testing.T) {
	blocks := Parse("```js\nconst a = 1;\n```", ParseOptions{})
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		_, ok := b.(Paragraph)
		require.True(t, ok, "block %d = %T, want Paragraph", i, b)
	}
	require.Equal(t, "```js", PlainText(blocks[0].(Paragraph).Inlines))
}

func TestParse_UnterminatedFenceRunsToEnd(t *testing.T) {
	blocks := Parse("intro\n```python\nprint(1)\nprint(2)", botOpts)
	require.Len(t, blocks, 2)
	require.Equal(t, CodeBlock{Language: "python", Code: "print(1)\nprint(2)"}, blocks[1])
}

func TestParse_FenceWithoutLanguage(t *testing.T) {
	blocks := Parse("```\nplain\n```\nafter", botOpts)
	require.Len(t, blocks, 2)
	cb := blocks[0].(CodeBlock)
	require.Equal(t, "", cb.Language)
	require.Equal(t, "code", cb.Label())
	require.Equal(t, Paragraph{Inlines: []Inline{Text{Value: "after"}}}, blocks[1])
}

func TestParse_FenceOpenOnlyYieldsEmptyCode(t *testing.T) {
	blocks := Parse("```go", botOpts)
	require.Equal(t, []Block{CodeBlock{Language: "go"}}, blocks)
}

func TestParse_ListBullets(t *testing.T) {
	blocks := Parse("- a\n* b\n3. c", botOpts)
	require.Equal(t, []Block{
		ListItem{Bullet: "•", Inlines: []Inline{Text{Value: "a"}}},
		ListItem{Bullet: "•", Inlines: []Inline{Text{Value: "b"}}},
		ListItem{Bullet: "3.", Inlines: []Inline{Text{Value: "c"}}},
	}, blocks)
}

func TestParse_LineKinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Block
	}{
		{"blockquote", "> quoted", Blockquote{Inlines: []Inline{Text{Value: "quoted"}}}},
		{"quote needs space", ">tight", Paragraph{Inlines: []Inline{Text{Value: ">tight"}}}},
		{"blank", "   ", Blank{}},
		{"empty", "", Blank{}},
		{"bold is not a list", "**b** x", Paragraph{Inlines: []Inline{Bold{Children: []Inline{Text{Value: "b"}}}, Text{Value: " x"}}}},
		{"dash without space", "-x", Paragraph{Inlines: []Inline{Text{Value: "-x"}}}},
		{"paragraph", "hello", Paragraph{Inlines: []Inline{Text{Value: "hello"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, []Block{tc.want}, Parse(tc.line, botOpts))
		})
	}
}

func TestParse_BlankLinesAreNotMerged(t *testing.T) {
	blocks := Parse("a\n\n\nb", botOpts)
	require.Len(t, blocks, 4)
	require.Equal(t, Blank{}, blocks[1])
	require.Equal(t, Blank{}, blocks[2])
}

func TestParse_Idempotent(t *testing.T) {
	text := "# title\n- item **bold**\n> *quote*\n```js\nlet x = `t`;\n```\n1. `code`"
	first := Parse(text, botOpts)
	second := Parse(text, botOpts)
	require.Equal(t, first, second)
}

func TestParseMessage_UsesSender(t *testing.T) {
	fence := "```\nx\n```"
	bot := model.Message{Sender: model.SenderBot, Text: fence}
	user := model.Message{Sender: model.SenderUser, Text: fence}

	require.IsType(t, CodeBlock{}, ParseMessage(bot)[0])
	require.IsType(t, Paragraph{}, ParseMessage(user)[0])
}

func TestBlockKey(t *testing.T) {
	require.Equal(t, "abc-3", BlockKey("abc", 3))
}

func TestCodeBlocks(t *testing.T) {
	blocks := Parse("a\n```\none\n```\nb\n```js\ntwo\n```", botOpts)
	codes := CodeBlocks(blocks)
	require.Len(t, codes, 2)
	require.Equal(t, "one", codes[1].Code)
	require.Equal(t, "two", codes[3].Code)
}
