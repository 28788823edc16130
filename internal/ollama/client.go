// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama
// API and an llm.Provider backed by it.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/stream"
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &llm.Error{Kind: llm.KindNetwork, Message: "Ollama is not running"}
	ErrModelNotFound = &llm.Error{Kind: llm.KindProvider, Message: "model not found"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// DefaultModel to use if none specified (default: "llama3.2")
	DefaultModel string

	// SystemPrompt is sent as the first message of every session.
	SystemPrompt string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://127.0.0.1:11434",
		Timeout:      30 * time.Second,
		DefaultModel: "llama3.2",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
// The Client is safe for concurrent use.
type Client struct {
	config *ClientConfig
	// httpClient serves short requests; streamClient has no overall timeout
	// because a reply may take minutes.
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new Ollama client, filling in defaults for any zero
// values of config.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "llama3.2"
	}

	return &Client{
		config:       &cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
	}
}

// Config returns the effective configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// CheckRunning verifies that Ollama is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &llm.Error{Kind: llm.KindConfig, Message: "invalid Ollama URL", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &llm.Error{Kind: llm.KindNetwork, Message: ErrNotRunning.Message, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &llm.Error{Kind: llm.KindProvider, Message: "unexpected status from Ollama: " + resp.Status}
	}
	return nil
}

// ListModels retrieves all locally available models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindConfig, Message: "invalid Ollama URL", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, llm.Classify(err, "failed to list models")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &llm.Error{Kind: llm.KindProvider, Message: "failed to list models: " + resp.Status}
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &llm.Error{Kind: llm.KindProvider, Message: "failed to decode response", Cause: err}
	}
	return result.Models, nil
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a streaming chat request. The returned Source yields the
// content of every NDJSON line in order and ends after the "done" line.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message) stream.Source {
	if model == "" {
		model = c.config.DefaultModel
	}

	return func(yield func(stream.Chunk, error) bool) {
		body, err := json.Marshal(ChatRequest{Model: model, Messages: messages, Stream: true})
		if err != nil {
			yield(stream.Chunk{}, &llm.Error{Kind: llm.KindProvider, Message: "failed to marshal request", Cause: err})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			yield(stream.Chunk{}, &llm.Error{Kind: llm.KindConfig, Message: "invalid Ollama URL", Cause: err})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.streamClient.Do(req)
		if err != nil {
			yield(stream.Chunk{}, llm.Classify(err, "chat request failed"))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield(stream.Chunk{}, statusError(resp))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ChatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				// Skip malformed lines
				continue
			}
			if chunk.Error != "" {
				yield(stream.Chunk{}, &llm.Error{Kind: llm.KindProvider, Message: chunk.Error})
				return
			}
			if chunk.Message.Content != "" {
				if !yield(stream.Chunk{Text: chunk.Message.Content}, nil) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(stream.Chunk{}, llm.Classify(err, "reading stream failed"))
			return
		}
		yield(stream.Chunk{}, &llm.Error{Kind: llm.KindNetwork, Message: "stream ended before completion"})
	}
}

func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrModelNotFound
	}
	var ollamaErr OllamaError
	if err := json.NewDecoder(resp.Body).Decode(&ollamaErr); err == nil && ollamaErr.Error != "" {
		return &llm.Error{Kind: llm.KindProvider, Message: ollamaErr.Error}
	}
	return &llm.Error{Kind: llm.KindProvider, Message: fmt.Sprintf("chat request failed: %s", resp.Status)}
}

// IsNotRunning reports whether err means Ollama could not be reached.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}
