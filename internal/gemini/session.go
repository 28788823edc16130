// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements llm.Provider on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/stream"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gemini-2.5-flash"

// DefaultSystemInstruction is the persona sent with every request.
const DefaultSystemInstruction = `You are Cipher Bot, a smart, helpful and privacy-aware AI assistant.
Tone: friendly, concise, a little hacker-ish but professional.
Answer in short, clean markdown. Use fenced code blocks with a language tag for code.
Add emoji sparingly. Never invent facts; say so when you are unsure.`

// =============================================================================
// PROVIDER
// =============================================================================

// Config holds the Gemini provider settings.
type Config struct {
	APIKey            string
	Model             string
	SystemInstruction string
	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
}

// Provider creates Gemini chat sessions.
type Provider struct {
	cfg Config
}

// NewProvider creates a provider, filling in defaults for empty fields.
func NewProvider(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}
	return &Provider{cfg: cfg}
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "gemini" }

// Model implements llm.Provider.
func (p *Provider) Model() string { return p.cfg.Model }

// NewSession implements llm.Provider. It fails with llm.ErrNoCredential
// when no API key is configured.
func (p *Provider) NewSession(ctx context.Context) (llm.Session, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, llm.ErrNoCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     p.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: p.cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindConfig, Message: "failed to create Gemini client", Cause: err}
	}

	slog.Debug("Gemini session created", "model", p.cfg.Model)
	return newSession(client.Models.GenerateContentStream, p.cfg.Model, p.cfg.SystemInstruction), nil
}

// =============================================================================
// SESSION
// =============================================================================

// generateFunc matches genai.Models.GenerateContentStream.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Session is a Gemini conversation. Turns are serialized.
type Session struct {
	mu       sync.Mutex
	generate generateFunc
	model    string
	config   *genai.GenerateContentConfig
	history  []*genai.Content
}

func newSession(generate generateFunc, model, instruction string) *Session {
	config := &genai.GenerateContentConfig{}
	if instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
	}
	return &Session{
		generate: generate,
		model:    model,
		config:   config,
	}
}

// StreamReply implements llm.Session.
func (s *Session) StreamReply(ctx context.Context, text string) stream.Source {
	return func(yield func(stream.Chunk, error) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		contents := append(slices.Clone(s.history), genai.NewContentFromText(text, genai.RoleUser))

		var reply strings.Builder
		for resp, err := range s.generate(ctx, s.model, contents, s.config) {
			if err != nil {
				slog.Debug("Gemini stream failed", "model", s.model, "error", err)
				yield(stream.Chunk{}, classify(err))
				return
			}
			chunk := responseText(resp)
			if chunk == "" {
				continue
			}
			reply.WriteString(chunk)
			if !yield(stream.Chunk{Text: chunk}, nil) {
				return
			}
		}

		if reply.Len() == 0 {
			yield(stream.Chunk{}, llm.ErrEmptyReply)
			return
		}
		s.history = append(contents, genai.NewContentFromText(reply.String(), genai.RoleModel))
	}
}

// HistoryLen returns the number of recorded turns (user and model).
func (s *Session) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// responseText concatenates the text parts of the first candidate without
// going through resp.Text(), which warns on non-text parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// classify maps SDK errors onto the llm taxonomy.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.Error{
			Kind:    llm.KindProvider,
			Message: fmt.Sprintf("Gemini API error %d", apiErr.Code),
			Cause:   errors.New(apiErr.Message),
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &llm.Error{
			Kind:    llm.KindProvider,
			Message: fmt.Sprintf("Gemini API error %d", apiErrPtr.Code),
			Cause:   errors.New(apiErrPtr.Message),
		}
	}
	return llm.Classify(err, "Gemini request failed")
}
