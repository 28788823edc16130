// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/cipherbot/internal/util"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// ErrorPrefix is prepended to the text of a bot message whose stream failed.
const ErrorPrefix = "Error: "

var (
	// ErrNotFound is returned when no message has the requested ID.
	ErrNotFound = errors.New("message not found")

	// ErrImmutable is returned when mutating a message that is no longer streaming.
	ErrImmutable = errors.New("message is no longer streaming")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered messages of the single chat session.
// It is safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []*Message
	index    map[string]*Message
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages: make([]*Message, 0),
		index:    make(map[string]*Message),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUser appends a final user message and returns a snapshot of it.
func (c *Conversation) AddUser(text string) Message {
	msg := NewUserMessage(text)
	c.add(&msg)
	return msg
}

// AddBot appends an empty streaming bot message and returns a snapshot of it.
func (c *Conversation) AddBot() Message {
	msg := NewBotMessage()
	c.add(&msg)
	return msg
}

func (c *Conversation) add(msg *Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *msg
	c.messages = append(c.messages, &stored)
	c.index[stored.ID] = &stored
	c.pruneOldMessages()
}

// SetText replaces the text of a streaming bot message. Stream consumers
// always pass the cumulative text, so the new text normally extends the old.
func (c *Conversation) SetText(id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := c.streamingLocked(id)
	if err != nil {
		return err
	}
	msg.Text = text
	return nil
}

// Finish marks a streaming message as complete.
func (c *Conversation) Finish(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := c.streamingLocked(id)
	if err != nil {
		return err
	}
	msg.IsStreaming = false
	return nil
}

// Fail replaces the text of a streaming message with an error annotation
// and marks it complete.
func (c *Conversation) Fail(id string, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, err := c.streamingLocked(id)
	if err != nil {
		return err
	}
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	msg.Text = ErrorPrefix + reason
	msg.IsStreaming = false
	return nil
}

func (c *Conversation) streamingLocked(id string) (*Message, error) {
	msg, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !msg.IsStreaming {
		return nil, fmt.Errorf("%w: %s", ErrImmutable, id)
	}
	return msg, nil
}

// Get returns a snapshot of the message with the given ID.
func (c *Conversation) Get(id string) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msg, ok := c.index[id]
	if !ok {
		return Message{}, false
	}
	return *msg, true
}

// Messages returns snapshots of all messages in order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	for i, msg := range c.messages {
		out[i] = *msg
	}
	return out
}

// Streaming reports whether any message is still streaming.
func (c *Conversation) Streaming() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].IsStreaming {
			return true
		}
	}
	return false
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// =============================================================================
// TITLE
// =============================================================================

// Title derives a short title from the first user message.
func (c *Conversation) Title() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, msg := range c.messages {
		if msg.Sender != SenderUser {
			continue
		}
		title := strings.TrimSpace(strings.SplitN(msg.Text, "\n", 2)[0])
		return util.TruncateRunes(title, 50)
	}
	return "New Conversation"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// pruneOldMessages drops the oldest finished messages once the history
// exceeds MaxMessages. Streaming messages are never pruned.
func (c *Conversation) pruneOldMessages() {
	excess := len(c.messages) - MaxMessages
	if excess <= 0 {
		return
	}
	kept := c.messages[:0]
	for _, msg := range c.messages {
		if excess > 0 && !msg.IsStreaming {
			delete(c.index, msg.ID)
			excess--
			continue
		}
		kept = append(kept, msg)
	}
	c.messages = kept
}
