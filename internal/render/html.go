// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/jeranaias/cipherbot/internal/model"
)

// TypingPlaceholder is shown while a bot message has no revealed text yet.
const TypingPlaceholder = "Cipher Bot is typing..."

// MessageState carries the per-message display flags that do not come
// from the text itself.
type MessageState struct {
	ID     string
	Sender model.Sender
	// Text is the raw revealed text, used as a fallback if rendering fails.
	Text string
	// Typing shows the placeholder instead of the blocks.
	Typing bool
	// Cursor appends a blinking cursor after the last block.
	Cursor bool
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// MessageHTML renders one message bubble. A failure while rendering the
// blocks degrades to the escaped raw text instead of propagating.
func MessageHTML(st MessageState, blocks []Block) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message render failed", "id", st.ID, "panic", r)
			out = messageShell(st, `<div class="md-p">`+html.EscapeString(st.Text)+`</div>`)
		}
	}()

	if st.Typing {
		return messageShell(st, `<div class="typing">`+html.EscapeString(TypingPlaceholder)+`</div>`)
	}

	body := BlocksHTML(st.ID, blocks)
	if st.Cursor {
		body += `<span class="cursor" aria-hidden="true"></span>`
	}
	return messageShell(st, body)
}

func messageShell(st MessageState, body string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<div class="message %s" id="msg-%s" data-id="%s">`,
		html.EscapeString(st.Sender.String()), html.EscapeString(st.ID), html.EscapeString(st.ID)))
	sb.WriteString(`<div class="bubble">`)
	sb.WriteString(body)
	sb.WriteString(`</div></div>`)
	return sb.String()
}

// BlocksHTML renders blocks without the message wrapper.
func BlocksHTML(messageID string, blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		writeBlockHTML(&sb, messageID, i, b)
	}
	return sb.String()
}

func writeBlockHTML(sb *strings.Builder, messageID string, index int, b Block) {
	key := html.EscapeString(BlockKey(messageID, index))
	switch b := b.(type) {
	case Paragraph:
		sb.WriteString(`<div class="md-p">`)
		writeInlineHTML(sb, b.Inlines)
		sb.WriteString(`</div>`)
	case Blank:
		sb.WriteString(`<div class="md-blank" aria-hidden="true"></div>`)
	case ListItem:
		sb.WriteString(`<div class="md-li"><span class="md-bullet">`)
		sb.WriteString(html.EscapeString(b.Bullet))
		sb.WriteString(`</span><div class="md-li-body">`)
		writeInlineHTML(sb, b.Inlines)
		sb.WriteString(`</div></div>`)
	case Blockquote:
		sb.WriteString(`<blockquote class="md-quote">`)
		writeInlineHTML(sb, b.Inlines)
		sb.WriteString(`</blockquote>`)
	case CodeBlock:
		copyLabel := "Copy"
		if b.Copied {
			copyLabel = "Copied!"
		}
		sb.WriteString(fmt.Sprintf(`<div class="md-code" data-key="%s">`, key))
		sb.WriteString(`<div class="md-code-header"><span class="md-code-lang">`)
		sb.WriteString(html.EscapeString(b.Label()))
		sb.WriteString(fmt.Sprintf(`</span><button class="md-copy" data-msg="%s" data-block="%d" aria-label="Copy code">%s</button></div>`,
			html.EscapeString(messageID), index, copyLabel))
		sb.WriteString(`<pre><code>`)
		sb.WriteString(Highlight(b.Code, b.Language))
		sb.WriteString(`</code></pre></div>`)
	}
}

func writeInlineHTML(sb *strings.Builder, nodes []Inline) {
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(html.EscapeString(n.Value))
		case Bold:
			sb.WriteString(`<strong>`)
			writeInlineHTML(sb, n.Children)
			sb.WriteString(`</strong>`)
		case Italic:
			sb.WriteString(`<em>`)
			writeInlineHTML(sb, n.Children)
			sb.WriteString(`</em>`)
		case InlineCode:
			sb.WriteString(`<code class="md-inline-code">`)
			sb.WriteString(html.EscapeString(n.Value))
			sb.WriteString(`</code>`)
		}
	}
}
