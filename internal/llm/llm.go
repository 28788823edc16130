// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm defines the chat-session contract shared by all model
// providers and the error taxonomy they report.
package llm

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/jeranaias/cipherbot/internal/stream"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes provider errors for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfig: the session cannot be created, typically a missing key.
	KindConfig
	// KindNetwork: the provider could not be reached.
	KindNetwork
	// KindProvider: the provider answered with an error.
	KindProvider
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Error represents an error from a model provider.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by kind and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Sentinel errors for easy checking.
var (
	ErrNoCredential = &Error{Kind: KindConfig, Message: "API key is not configured"}
	ErrEmptyReply   = &Error{Kind: KindProvider, Message: "provider returned an empty reply"}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConfig reports whether err is a session configuration error.
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}

// Classify wraps a transport or API failure into an *Error. Errors that
// are already classified are returned unchanged; dial, DNS and URL errors
// become KindNetwork; everything else is KindProvider.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var (
		urlErr *url.Error
		netErr net.Error
		opErr  *net.OpError
	)
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &netErr) {
		return &Error{Kind: KindNetwork, Message: message, Cause: err}
	}
	return &Error{Kind: KindProvider, Message: message, Cause: err}
}

// =============================================================================
// SESSION CONTRACT
// =============================================================================

// Session is one ongoing conversation with a model. Implementations keep
// the turn history themselves.
type Session interface {
	// StreamReply sends text as the next user turn and returns the reply as
	// a lazy chunk sequence. The sequence runs once; the completed reply is
	// recorded in the history when the sequence is exhausted.
	StreamReply(ctx context.Context, text string) stream.Source
}

// Provider creates sessions for one backend.
type Provider interface {
	// Name identifies the provider ("gemini", "ollama").
	Name() string
	// Model returns the model the sessions will use.
	Model() string
	// NewSession creates a session. It fails with a KindConfig error when
	// the provider is not configured.
	NewSession(ctx context.Context) (Session, error)
}
