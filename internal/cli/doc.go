// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the cipherbot command tree.
//
// The root command starts the terminal UI. The other commands serve the
// browser UI, chat line by line, answer one question, and manage themes and
// the config file.
//
// # Usage
//
//	os.Exit(cli.Execute(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...))
//
// # Commands Overview
//
//   - (root): Full-screen terminal chat
//   - serve: Browser UI over HTTP with server-sent events
//   - chat: Line-mode chat with input history and slash commands
//   - ask: One question, reply on stdout
//   - themes: List, select and show palettes
//   - config: Show, locate or create the config file
//   - version: Build information
//
// # Output
//
// ask and chat render markdown with highlighted code when stdout is a
// terminal and print the raw reply text otherwise. NO_COLOR and FORCE_COLOR
// are honored.
package cli
