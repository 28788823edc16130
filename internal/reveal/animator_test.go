// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates the character-by-character reveal of streaming
// bot messages and tracks short-lived per-block UI flags.
package reveal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cipherbot/internal/model"
)

func botMsg(id, text string, streaming bool) model.Message {
	return model.Message{ID: id, Sender: model.SenderBot, Text: text, IsStreaming: streaming}
}

func newTestAnimator() (*Animator, *fakeScheduler) {
	sched := &fakeScheduler{}
	return New(WithScheduler(sched)), sched
}

// =============================================================================
// REVEAL TESTS
// =============================================================================

func TestAnimator_RevealsOneCharacterPerStep(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "Hello", true))

	require.Equal(t, 0, a.View("b").Revealed)
	require.Equal(t, 1, sched.pending())

	for i := 1; i <= 5; i++ {
		require.Equal(t, 1, sched.tick())
		assert.Equal(t, i, a.View("b").Revealed)
		assert.Equal(t, "Hello"[:i], a.View("b").Text)
	}
	assert.Equal(t, 0, sched.pending(), "settled message must not keep a timer")
	assert.True(t, a.View("b").Settled)
}

func TestAnimator_UsesCadence(t *testing.T) {
	sched := &fakeScheduler{}
	a := New(WithScheduler(sched), WithCadence(5*time.Millisecond))
	a.Update(botMsg("b", "x", true))
	require.Len(t, sched.timers, 1)
	assert.Equal(t, 5*time.Millisecond, sched.timers[0].d)

	b := New()
	assert.Equal(t, DefaultCadence, b.Cadence())
}

func TestAnimator_MonotonicAcrossExtensions(t *testing.T) {
	a, sched := newTestAnimator()
	text := ""
	last := 0
	for _, chunk := range []string{"Hel", "lo, ", "wor", "ld"} {
		text += chunk
		a.Update(botMsg("b", text, true))
		sched.tick()
		got := a.View("b").Revealed
		require.GreaterOrEqual(t, got, last)
		last = got
	}
	a.Update(botMsg("b", text, false))

	ticks := sched.drain(100)
	assert.LessOrEqual(t, ticks, len(text))
	assert.Equal(t, text, a.View("b").Text)
}

func TestAnimator_AtMostOnePendingStep(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "a", true))
	a.Update(botMsg("b", "ab", true))
	a.Update(botMsg("b", "abc", true))
	assert.Equal(t, 1, sched.pending())
}

func TestAnimator_DivergenceResets(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "Hello world", true))
	for i := 0; i < 9; i++ {
		sched.tick()
	}
	require.Equal(t, "Hello wor", a.View("b").Text)

	a.Update(botMsg("b", "Hi", true))
	assert.Equal(t, 0, a.View("b").Revealed)
	assert.Equal(t, 1, sched.pending())

	sched.drain(10)
	assert.Equal(t, "Hi", a.View("b").Text)
}

func TestAnimator_ShorterTargetResets(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "Hello", true))
	sched.tick()
	sched.tick()
	a.Update(botMsg("b", "Hell", true))
	assert.Equal(t, 0, a.View("b").Revealed)
}

func TestAnimator_StaleTimerIsIgnored(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "abc", true))
	sched.tick()
	a.Update(botMsg("b", "xyz", true)) // diverges, stops timer index 1

	sched.fireStale(1)
	assert.Equal(t, 0, a.View("b").Revealed, "stale step must not advance")
}

func TestAnimator_UserMessageShownImmediately(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(model.Message{ID: "u", Sender: model.SenderUser, Text: "hi there"})

	f := a.View("u")
	assert.Equal(t, "hi there", f.Text)
	assert.True(t, f.Settled)
	assert.False(t, f.Typing)
	assert.False(t, f.Cursor)
	assert.Equal(t, 0, sched.pending())
}

func TestAnimator_TypingAndCursorFlags(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "", true))
	f := a.View("b")
	assert.True(t, f.Typing)
	assert.False(t, f.Cursor)

	a.Update(botMsg("b", "ok", true))
	sched.tick()
	f = a.View("b")
	assert.False(t, f.Typing)
	assert.True(t, f.Cursor)

	sched.drain(10)
	assert.True(t, a.View("b").Cursor, "cursor stays while streaming")

	a.Update(botMsg("b", "ok", false))
	f = a.View("b")
	assert.False(t, f.Cursor)
	assert.False(t, f.Typing)
	assert.True(t, f.Settled)
}

func TestAnimator_MultiByteRunes(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("b", "héllo•", true))
	sched.tick()
	sched.tick()
	assert.Equal(t, "hé", a.View("b").Text)
	sched.drain(10)
	f := a.View("b")
	assert.Equal(t, "héllo•", f.Text)
	assert.Equal(t, 6, f.Total)
}

func TestAnimator_RemoveAndClose(t *testing.T) {
	a, sched := newTestAnimator()
	a.Update(botMsg("a", "text", true))
	a.Update(botMsg("b", "text", true))
	require.Equal(t, 2, sched.pending())
	require.False(t, a.Idle())

	a.Remove("a")
	assert.Equal(t, 1, sched.pending())
	assert.Equal(t, Frame{}, a.View("a"))

	a.Close()
	assert.Equal(t, 0, sched.pending())
	assert.True(t, a.Idle())

	a.Update(botMsg("c", "late", true))
	assert.Equal(t, 0, sched.pending(), "closed animator ignores updates")
}

func TestAnimator_OnChange(t *testing.T) {
	sched := &fakeScheduler{}
	var mu sync.Mutex
	var seen []string
	a := New(WithScheduler(sched), WithOnChange(func(id string) {
		mu.Lock()
		seen = append(seen, id)
		mu.Unlock()
	}))

	a.Update(botMsg("b", "ab", true))
	sched.drain(10)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b", "b", "b"}, seen)
}

func TestAnimator_WallClock(t *testing.T) {
	done := make(chan struct{})
	var once sync.Once
	var a *Animator
	a = New(WithCadence(time.Millisecond), WithOnChange(func(id string) {
		if a.View(id).Settled {
			once.Do(func() { close(done) })
		}
	}))
	defer a.Close()

	a.Update(botMsg("b", "quick", true))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reveal did not settle")
	}
	assert.Equal(t, "quick", a.View("b").Text)
}
