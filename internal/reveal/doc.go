// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates the character-by-character reveal of streaming
// bot messages and tracks short-lived per-block UI flags.
//
// # Animator
//
// An Animator keeps one reveal state per message id. Every Update records
// the latest full text of a message; the animator then reveals that text one
// character per cadence tick, independent of how the text arrived. If an
// update does not extend what is already on screen the state resets and the
// reveal restarts from empty.
//
//	anim := reveal.New(reveal.WithOnChange(func(id string) { redraw(id) }))
//	defer anim.Close()
//	anim.Update(msg)
//	frame := anim.View(msg.ID)
//
// Time is abstracted behind Scheduler so tests can step the clock.
//
// # CopyTracker
//
// CopyTracker holds the "Copied!" flag of code blocks; each flag clears
// itself after a fixed delay.
package reveal
