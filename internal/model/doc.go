// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the renderer, the
// reveal animator and the front ends.
//
// # Key Types
//
//   - Conversation: Thread-safe, ordered container for the chat messages
//   - Message: Single message with sender, text and streaming flag
//   - Sender: Message author (user or bot)
//
// # Lifecycle
//
// User messages are created final. Bot messages start empty with
// IsStreaming set; their text only grows until Finish or Fail is called,
// after which the message is immutable:
//
//	conv := model.NewConversation()
//	conv.AddUser("Hello!")
//	bot := conv.AddBot()
//	_ = conv.SetText(bot.ID, "Hi")
//	_ = conv.Finish(bot.ID)
package model
