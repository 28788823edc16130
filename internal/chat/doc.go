// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one Cipher Bot conversation for a front end.
//
// A Controller owns the conversation, the model session, the reveal
// animator and the copy tracker. Front ends (the browser server and the
// terminal UI) send user text, subscribe to change events and re-read
// MessageView snapshots to draw.
//
// # Lifecycle
//
//	c := chat.New(provider, chat.WithCadence(30*time.Millisecond))
//	defer c.Close()
//	if err := c.Init(ctx); err != nil {
//		// config errors block sending; Retry after fixing
//	}
//	cancel := c.Subscribe(func(ev chat.Event) { redraw(ev.MessageID) })
//	botID, err := c.Send(ctx, "hello")
//
// Only one reply streams at a time; Send returns ErrBusy meanwhile. A reply
// runs to completion even if the caller's context ends.
package chat
