// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Cipher Bot terminal UI.
package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/jeranaias/cipherbot/internal/chat"
)

// =============================================================================
// EVENT BUFFER
// =============================================================================

// defaultMaxFPS caps redraws while a reply is being revealed.
const defaultMaxFPS = 30

// refreshMsg is delivered to Update with the changes collected since the
// previous one.
type refreshMsg struct {
	messages int
	theme    bool
	error    bool
	ready    bool
}

// EventBuffer batches controller events for the Bubble Tea loop.
// Controller callbacks arrive on timer and stream goroutines and must not
// block, so Push only records what changed. Listen hands the batch to the
// loop at most maxFPS times per second.
type EventBuffer struct {
	mu        sync.Mutex
	pending   refreshMsg
	dirty     bool
	lastFlush time.Time

	minInterval time.Duration
	notify      chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventBuffer creates a buffer capped at maxFPS flushes per second.
// Values outside 1..60 use the default of 30.
func NewEventBuffer(maxFPS int) *EventBuffer {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = defaultMaxFPS
	}
	return &EventBuffer{
		minInterval: time.Second / time.Duration(maxFPS),
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Push records ev. It never blocks.
func (b *EventBuffer) Push(ev chatctl.Event) {
	b.mu.Lock()
	switch ev.Kind {
	case chatctl.EventMessage:
		b.pending.messages++
	case chatctl.EventTheme:
		b.pending.theme = true
	case chatctl.EventError:
		b.pending.error = true
	case chatctl.EventReady:
		b.pending.ready = true
	}
	b.dirty = true
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Flush returns and resets the collected changes.
func (b *EventBuffer) Flush() (refreshMsg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty {
		return refreshMsg{}, false
	}
	msg := b.pending
	b.pending = refreshMsg{}
	b.dirty = false
	b.lastFlush = time.Now()
	return msg, true
}

// Listen returns a command that waits for the next batch. It yields nil
// once the buffer is closed.
func (b *EventBuffer) Listen() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-b.done:
				return nil
			case <-b.notify:
			}

			b.mu.Lock()
			wait := b.minInterval - time.Since(b.lastFlush)
			b.mu.Unlock()
			if wait > 0 {
				select {
				case <-b.done:
					return nil
				case <-time.After(wait):
				}
			}

			if msg, ok := b.Flush(); ok {
				return msg
			}
		}
	}
}

// Close releases a pending Listen.
func (b *EventBuffer) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
