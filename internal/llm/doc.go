// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the chat-session contract shared by all model
// providers and the error taxonomy they report.
//
// # Key Types
//
//   - Provider: creates sessions; fails with a KindConfig error when no
//     credential is configured
//   - Session: streams one reply per user turn and keeps the history
//   - Error: typed error with a Kind (config, network, provider)
//
// Implementations live in the gemini and ollama packages.
package llm
