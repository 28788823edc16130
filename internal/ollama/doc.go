// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama
// API and an llm.Provider backed by it.
//
// The client speaks the NDJSON streaming protocol of /api/chat: one JSON
// object per line, the last one carrying "done": true. Each Session keeps
// the conversation history locally and sends it with every request.
//
// # Usage
//
//	p := ollama.NewProvider(ollama.DefaultConfig())
//	sess, err := p.NewSession(ctx) // fails if Ollama is not reachable
//	for chunk, err := range sess.StreamReply(ctx, "hello") { ... }
//
// # Error Handling
//
// Transport failures map to llm.KindNetwork, API errors (unknown model,
// bad request) to llm.KindProvider.
package ollama
