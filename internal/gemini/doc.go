// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements llm.Provider on top of the Google Gen AI SDK.
//
// Each Session keeps its own turn history and sends it with every request,
// so a reply always has the full conversation as context. A failed turn is
// not recorded.
//
// Usage:
//
//	p := gemini.NewProvider(gemini.Config{APIKey: key})
//	sess, err := p.NewSession(ctx)
//	for chunk, err := range sess.StreamReply(ctx, "hello") { ... }
package gemini
