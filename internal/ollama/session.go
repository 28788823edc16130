// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama
// API and an llm.Provider backed by it.
package ollama

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/stream"
)

// =============================================================================
// PROVIDER
// =============================================================================

// Provider creates sessions against a local Ollama server.
type Provider struct {
	client *Client
}

// NewProvider creates a provider for the given client configuration.
func NewProvider(config *ClientConfig) *Provider {
	return &Provider{client: NewClient(config)}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "ollama" }

// Model implements llm.Provider.
func (p *Provider) Model() string { return p.client.config.DefaultModel }

// Client returns the underlying API client.
func (p *Provider) Client() *Client { return p.client }

// NewSession implements llm.Provider. It fails when the server cannot be
// reached so the problem surfaces before the first message.
func (p *Provider) NewSession(ctx context.Context) (llm.Session, error) {
	if err := p.client.CheckRunning(ctx); err != nil {
		return nil, err
	}
	s := &Session{client: p.client, model: p.client.config.DefaultModel}
	if prompt := p.client.config.SystemPrompt; prompt != "" {
		s.history = append(s.history, NewSystemMessage(prompt))
	}
	slog.Debug("Ollama session created", "model", s.model, "url", p.client.config.BaseURL)
	return s, nil
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one Ollama conversation. Turns are serialized.
type Session struct {
	mu      sync.Mutex
	client  *Client
	model   string
	history []Message
}

// StreamReply implements llm.Session.
func (s *Session) StreamReply(ctx context.Context, text string) stream.Source {
	return func(yield func(stream.Chunk, error) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		messages := append(slices.Clone(s.history), NewUserMessage(text))
		var reply strings.Builder
		for chunk, err := range s.client.ChatStream(ctx, s.model, messages) {
			if err != nil {
				yield(stream.Chunk{}, err)
				return
			}
			reply.WriteString(chunk.Text)
			if !yield(chunk, nil) {
				return
			}
		}
		if reply.Len() == 0 {
			yield(stream.Chunk{}, llm.ErrEmptyReply)
			return
		}
		s.history = append(messages, NewAssistantMessage(reply.String()))
	}
}

// History returns a copy of the recorded messages.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}
