// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream adapts lazily produced reply chunks into cumulative text
// updates.
package stream

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// =============================================================================
// TYPES
// =============================================================================

// Chunk is one piece of a streamed reply.
type Chunk struct {
	Text string
}

// Source yields reply chunks in arrival order. A non-nil error ends the
// sequence. Sources are finite and not restartable.
type Source = iter.Seq2[Chunk, error]

// FromChunks returns a Source that yields the given texts.
func FromChunks(texts ...string) Source {
	return func(yield func(Chunk, error) bool) {
		for _, t := range texts {
			if !yield(Chunk{Text: t}, nil) {
				return
			}
		}
	}
}

// Failing returns a Source that yields the given texts and then err.
func Failing(err error, texts ...string) Source {
	return func(yield func(Chunk, error) bool) {
		for _, t := range texts {
			if !yield(Chunk{Text: t}, nil) {
				return
			}
		}
		yield(Chunk{}, err)
	}
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consume pulls every chunk from src. For each chunk with non-empty text it
// calls onDelta with the cumulative text so far. If the source fails,
// onError (when non-nil) receives the error and Consume returns it along
// with the text accumulated before the failure.
func Consume(src Source, onDelta func(full string), onError func(err error)) (string, error) {
	var acc strings.Builder
	for chunk, err := range src {
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return acc.String(), err
		}
		if chunk.Text == "" {
			continue
		}
		acc.WriteString(chunk.Text)
		if onDelta != nil {
			onDelta(acc.String())
		}
	}
	return acc.String(), nil
}

// =============================================================================
// PUMP
// =============================================================================

// Target receives the lifecycle of one streaming message.
// *model.Conversation implements it.
type Target interface {
	SetText(id, text string) error
	Finish(id string) error
	Fail(id string, cause error) error
}

// Error reports a reply stream that failed after the bot message was
// created. The message has already been annotated and finished.
type Error struct {
	MessageID string
	Cause     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stream for message %s failed: %v", e.MessageID, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Pump consumes src into the message id of target. On exhaustion the
// message is finished; on failure its text becomes the error annotation and
// it is finished as well, so it is never left streaming. The optional
// onUpdate hook runs after every state change of the message.
func Pump(target Target, id string, src Source, onUpdate func()) (string, error) {
	notify := func() {
		if onUpdate != nil {
			onUpdate()
		}
	}

	var updateErr error
	final, err := Consume(src, func(full string) {
		if e := target.SetText(id, full); e != nil && updateErr == nil {
			updateErr = e
		}
		notify()
	}, nil)

	if err != nil {
		streamErr := &Error{MessageID: id, Cause: err}
		failErr := target.Fail(id, err)
		notify()
		if failErr != nil {
			return final, errors.Join(streamErr, failErr)
		}
		return final, streamErr
	}
	if e := target.Finish(id); e != nil {
		return final, errors.Join(updateErr, e)
	}
	notify()
	return final, updateErr
}
