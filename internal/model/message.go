// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Cipher Bot"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat message. Values handed out by Conversation are
// snapshots; mutate through the Conversation methods.
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Sender      Sender    `json:"sender"`
	IsStreaming bool      `json:"isStreaming"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUserMessage creates a final user message.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		CreatedAt: time.Now(),
	}
}

// NewBotMessage creates an empty bot message that is still streaming.
func NewBotMessage() Message {
	return Message{
		ID:          uuid.NewString(),
		Sender:      SenderBot,
		IsStreaming: true,
		CreatedAt:   time.Now(),
	}
}

// IsBot reports whether the message was authored by the bot.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}
