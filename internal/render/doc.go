// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
//
// Rendering is split into three pure stages that are cheap enough to re-run
// on every reveal tick of a streaming message:
//
//   - Parse: line-oriented block parser (paragraphs, list items, blockquotes,
//     blank lines and fenced code blocks)
//   - ParseInline: depth-bounded inline formatter (bold, italic, inline code)
//   - Highlight / Tokenize: HTML escaper and a minimal JavaScript highlighter
//
// Two back ends consume the block tree: MessageHTML for the browser UI and
// Terminal for the bubbletea UI and the line REPL.
//
// # Usage
//
//	blocks := render.ParseMessage(msg)
//	html := render.MessageHTML(render.MessageState{ID: msg.ID, Sender: msg.Sender}, blocks)
//
// None of the functions in this package keep state between calls; the same
// input always yields the same tree.
package render
