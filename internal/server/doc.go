// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the Cipher Bot browser UI.
//
// Messages are rendered to HTML on the server by the render package; the
// page's script only swaps rendered messages in and applies palettes.
//
// # Endpoints
//
//   - GET    /                   - Chat page with the current palette inlined
//   - GET    /static/            - Embedded script and stylesheet
//   - GET    /api/events         - Server-sent events: ready, message, theme, error
//   - GET    /api/messages       - Rendered conversation and session status
//   - POST   /api/messages       - Send a message {"text"}
//   - POST   /api/copy           - Code of a code block {"id", "block"}
//   - GET    /api/themes         - Selectable palettes
//   - POST   /api/theme          - Select a palette {"name"}
//   - POST   /api/session/retry  - Retry session initialization
//   - DELETE /api/error          - Dismiss the error banner
//   - GET    /health             - Health check
//
// # Middleware
//
// Requests pass through Recovery, Logging, SecurityHeaders and RateLimit,
// in that order. Rate limiting applies to POST requests only and keeps one
// token bucket per client IP.
//
// # Usage
//
//	srv := server.New(ctrl, themes, server.Config{Addr: "127.0.0.1:8787"})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
