// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the Cipher Bot browser UI.
package server

import (
	"sync"

	"github.com/jeranaias/cipherbot/internal/chat"
)

// ============================================================================
// EVENT HUB
// ============================================================================

// pending is the set of changes a client has not been sent yet. Changes
// coalesce: a message that changed five times is sent once, rendered from
// the state at write time.
type pending struct {
	messages []string
	seen     map[string]bool
	theme    bool
	error    bool
	ready    bool
}

func (p *pending) empty() bool {
	return len(p.messages) == 0 && !p.theme && !p.error && !p.ready
}

// client is one open event stream.
type client struct {
	mu   sync.Mutex
	p    pending
	wake chan struct{}
}

func newClient() *client {
	return &client{
		p:    pending{seen: make(map[string]bool)},
		wake: make(chan struct{}, 1),
	}
}

func (c *client) add(ev chat.Event) {
	c.mu.Lock()
	switch ev.Kind {
	case chat.EventMessage:
		if ev.MessageID != "" && !c.p.seen[ev.MessageID] {
			c.p.seen[ev.MessageID] = true
			c.p.messages = append(c.p.messages, ev.MessageID)
		}
	case chat.EventTheme:
		c.p.theme = true
	case chat.EventError:
		c.p.error = true
	case chat.EventReady:
		c.p.ready = true
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// take returns and resets the pending changes.
func (c *client) take() pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.p
	c.p = pending{seen: make(map[string]bool)}
	return p
}

// hub fans controller events out to the open event streams. publish never
// blocks, so it is safe to call from controller callbacks.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	done    chan struct{}
}

func newHub() *hub {
	return &hub{
		clients: make(map[*client]struct{}),
		done:    make(chan struct{}),
	}
}

// join registers a new client. ok is false once the hub is closed.
func (h *hub) join() (c *client, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c = newClient()
	h.clients[c] = struct{}{}
	return c, true
}

func (h *hub) leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) publish(ev chat.Event) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.add(ev)
	}
}

// count returns the number of connected clients.
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// close ends every event stream.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}
