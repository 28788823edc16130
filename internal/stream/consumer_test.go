// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream adapts lazily produced reply chunks into cumulative text
// updates.
package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cipherbot/internal/model"
)

// =============================================================================
// CONSUME TESTS
// =============================================================================

func TestConsume_Cumulative(t *testing.T) {
	var deltas []string
	final, err := Consume(FromChunks("Hel", "lo"), func(full string) {
		deltas = append(deltas, full)
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello", final)
	assert.Equal(t, []string{"Hel", "Hello"}, deltas)
}

func TestConsume_SkipsEmptyChunks(t *testing.T) {
	var deltas []string
	_, err := Consume(FromChunks("", "a", "", "b"), func(full string) {
		deltas = append(deltas, full)
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab"}, deltas)
}

func TestConsume_Error(t *testing.T) {
	boom := errors.New("boom")
	var got error
	final, err := Consume(Failing(boom, "part"), nil, func(err error) { got = err })

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, got, boom)
	assert.Equal(t, "part", final)
}

// =============================================================================
// PUMP TESTS
// =============================================================================

func TestPump_FinishesMessage(t *testing.T) {
	conv := model.NewConversation()
	bot := conv.AddBot()
	updates := 0

	final, err := Pump(conv, bot.ID, FromChunks("Hel", "lo"), func() { updates++ })
	require.NoError(t, err)
	assert.Equal(t, "Hello", final)
	assert.Equal(t, 3, updates)

	msg, _ := conv.Get(bot.ID)
	assert.Equal(t, "Hello", msg.Text)
	assert.False(t, msg.IsStreaming)
}

func TestPump_AnnotatesFailure(t *testing.T) {
	conv := model.NewConversation()
	bot := conv.AddBot()

	_, err := Pump(conv, bot.ID, Failing(errors.New("network down"), "partial"), nil)

	var streamErr *Error
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, bot.ID, streamErr.MessageID)

	msg, _ := conv.Get(bot.ID)
	assert.Equal(t, "Error: network down", msg.Text)
	assert.False(t, msg.IsStreaming, "failed message must not stay streaming")
}

func TestPump_EmptyReplyStillFinishes(t *testing.T) {
	conv := model.NewConversation()
	bot := conv.AddBot()

	_, err := Pump(conv, bot.ID, FromChunks(), nil)
	require.NoError(t, err)
	msg, _ := conv.Get(bot.ID)
	assert.False(t, msg.IsStreaming)
}

func TestPump_UnknownMessage(t *testing.T) {
	conv := model.NewConversation()
	_, err := Pump(conv, "missing", FromChunks("x"), nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
