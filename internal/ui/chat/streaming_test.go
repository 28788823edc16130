// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Cipher Bot terminal UI.
package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatctl "github.com/jeranaias/cipherbot/internal/chat"
)

// =============================================================================
// EVENT BUFFER TESTS
// =============================================================================

func TestEventBuffer_Coalesces(t *testing.T) {
	b := NewEventBuffer(30)
	defer b.Close()

	_, ok := b.Flush()
	assert.False(t, ok, "nothing pushed yet")

	b.Push(chatctl.Event{Kind: chatctl.EventMessage, MessageID: "a"})
	b.Push(chatctl.Event{Kind: chatctl.EventMessage, MessageID: "a"})
	b.Push(chatctl.Event{Kind: chatctl.EventTheme})
	b.Push(chatctl.Event{Kind: chatctl.EventReady})

	msg, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, refreshMsg{messages: 2, theme: true, ready: true}, msg)

	_, ok = b.Flush()
	assert.False(t, ok, "flush resets")
}

func TestEventBuffer_Listen(t *testing.T) {
	b := NewEventBuffer(60)
	defer b.Close()

	cmd := b.Listen()
	done := make(chan any, 1)
	go func() { done <- cmd() }()

	b.Push(chatctl.Event{Kind: chatctl.EventError})

	select {
	case msg := <-done:
		assert.Equal(t, refreshMsg{error: true}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not return")
	}
}

func TestEventBuffer_PushNeverBlocks(t *testing.T) {
	b := NewEventBuffer(30)
	defer b.Close()

	for i := 0; i < 1000; i++ {
		b.Push(chatctl.Event{Kind: chatctl.EventMessage})
	}
	msg, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, 1000, msg.messages)
}

func TestEventBuffer_CloseReleasesListen(t *testing.T) {
	b := NewEventBuffer(30)
	cmd := b.Listen()
	done := make(chan any, 1)
	go func() { done <- cmd() }()

	b.Close()
	b.Close()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not return after close")
	}
}

func TestNewEventBuffer_ClampsFPS(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{0, time.Second / defaultMaxFPS},
		{-5, time.Second / defaultMaxFPS},
		{120, time.Second / defaultMaxFPS},
		{10, 100 * time.Millisecond},
		{60, time.Second / 60},
	}
	for _, tt := range tests {
		b := NewEventBuffer(tt.fps)
		assert.Equal(t, tt.want, b.minInterval, "fps %d", tt.fps)
		b.Close()
	}
}

// =============================================================================
// VIEWPORT OPTIMIZER TESTS
// =============================================================================

func TestViewportOptimizer(t *testing.T) {
	vo := NewViewportOptimizer()

	assert.True(t, vo.ShouldUpdate(""), "first update always passes")
	assert.False(t, vo.ShouldUpdate(""))
	assert.True(t, vo.ShouldUpdate("hello"))
	assert.False(t, vo.ShouldUpdate("hello"))
	assert.True(t, vo.ShouldUpdate("hellp"), "same length, different content")

	vo.ForceUpdate()
	assert.True(t, vo.ShouldUpdate("hellp"))

	total, skipped := vo.Stats()
	assert.Equal(t, uint64(6), total)
	assert.Equal(t, uint64(2), skipped)
}
