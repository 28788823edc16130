// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates the character-by-character reveal of streaming
// bot messages and tracks short-lived per-block UI flags.
package reveal

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/cipherbot/internal/model"
)

// DefaultCadence is the delay between two reveal steps.
const DefaultCadence = 30 * time.Millisecond

// =============================================================================
// FRAME
// =============================================================================

// Frame is the displayable state of one message at a point in time.
type Frame struct {
	// Text is the revealed prefix of the message text.
	Text string
	// Revealed and Total count characters (runes).
	Revealed int
	Total    int
	// Streaming mirrors the message's IsStreaming flag.
	Streaming bool
	// Typing asks for the "is typing" placeholder instead of content.
	Typing bool
	// Cursor asks for the blinking cursor after the content.
	Cursor bool
	// Settled is true once the whole text is revealed.
	Settled bool
}

// =============================================================================
// ANIMATOR
// =============================================================================

type revealState struct {
	target        string
	total         int
	revealed      int
	revealedBytes int
	streaming     bool
	timer         Timer
	// gen invalidates timers that fired after being replaced or stopped.
	gen uint64
}

// Animator owns the reveal state of every displayed message.
// It is safe for concurrent use.
type Animator struct {
	mu       sync.Mutex
	cadence  time.Duration
	sched    Scheduler
	onChange func(id string)
	states   map[string]*revealState
	closed   bool
}

// Option configures an Animator.
type Option func(*Animator)

// WithCadence sets the delay between reveal steps.
func WithCadence(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.cadence = d
		}
	}
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(a *Animator) {
		if s != nil {
			a.sched = s
		}
	}
}

// WithOnChange registers a callback invoked, outside the animator's lock,
// whenever the frame of a message changes.
func WithOnChange(f func(id string)) Option {
	return func(a *Animator) {
		a.onChange = f
	}
}

// New creates an Animator.
func New(opts ...Option) *Animator {
	a := &Animator{
		cadence: DefaultCadence,
		sched:   SystemScheduler{},
		states:  make(map[string]*revealState),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cadence returns the delay between reveal steps.
func (a *Animator) Cadence() time.Duration {
	return a.cadence
}

// Update records the latest snapshot of a message. User messages are shown
// in full at once. For bot messages a text that no longer extends the
// revealed prefix, or that is shorter than the previous text, resets the
// reveal to empty. A step is scheduled while the text is not fully revealed;
// at most one step per message is ever pending.
func (a *Animator) Update(msg model.Message) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}

	st, ok := a.states[msg.ID]
	if !ok {
		st = &revealState{}
		a.states[msg.ID] = st
	}
	changed := st.target != msg.Text || st.streaming != msg.IsStreaming

	if msg.Sender != model.SenderBot {
		a.stopLocked(st)
		st.target = msg.Text
		st.total = utf8.RuneCountInString(msg.Text)
		st.revealed = st.total
		st.revealedBytes = len(msg.Text)
		st.streaming = false
		a.mu.Unlock()
		if changed {
			a.notify(msg.ID)
		}
		return
	}

	if st.diverges(msg.Text) {
		slog.Debug("reveal diverged, restarting",
			"id", msg.ID, "revealed", st.revealed, "old_len", len(st.target), "new_len", len(msg.Text))
		a.stopLocked(st)
		st.revealed = 0
		st.revealedBytes = 0
	}

	st.target = msg.Text
	st.total = utf8.RuneCountInString(msg.Text)
	st.streaming = msg.IsStreaming

	if st.revealed < st.total {
		if st.timer == nil {
			a.scheduleLocked(msg.ID, st)
		}
	} else {
		a.stopLocked(st)
	}
	a.mu.Unlock()

	if changed {
		a.notify(msg.ID)
	}
}

// diverges reports whether next is not an extension of the current state.
func (st *revealState) diverges(next string) bool {
	if st.revealed == 0 && st.target == "" {
		return false
	}
	if len(next) < len(st.target) {
		return true
	}
	return !strings.HasPrefix(next, st.target[:st.revealedBytes])
}

func (a *Animator) scheduleLocked(id string, st *revealState) {
	st.gen++
	gen := st.gen
	st.timer = a.sched.AfterFunc(a.cadence, func() {
		a.step(id, gen)
	})
}

func (a *Animator) stopLocked(st *revealState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.gen++
}

// step reveals exactly one more character and reschedules while short.
func (a *Animator) step(id string, gen uint64) {
	a.mu.Lock()
	st, ok := a.states[id]
	if a.closed || !ok || st.gen != gen {
		a.mu.Unlock()
		return
	}
	st.timer = nil

	advanced := false
	if st.revealed < st.total {
		_, size := utf8.DecodeRuneInString(st.target[st.revealedBytes:])
		st.revealedBytes += size
		st.revealed++
		advanced = true
	}
	if st.revealed < st.total {
		a.scheduleLocked(id, st)
	}
	a.mu.Unlock()

	if advanced {
		a.notify(id)
	}
}

func (a *Animator) notify(id string) {
	if a.onChange != nil {
		a.onChange(id)
	}
}

// View returns the current frame of a message. Unknown ids yield a zero
// Frame.
func (a *Animator) View(id string) Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[id]
	if !ok {
		return Frame{}
	}
	return Frame{
		Text:      st.target[:st.revealedBytes],
		Revealed:  st.revealed,
		Total:     st.total,
		Streaming: st.streaming,
		Typing:    st.streaming && st.revealed == 0,
		Cursor:    st.streaming && st.revealed > 0,
		Settled:   st.revealed == st.total,
	}
}

// Pending reports whether a reveal step is scheduled for the message.
func (a *Animator) Pending(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.states[id]
	return ok && st.timer != nil
}

// Idle reports whether no message has a pending reveal step.
func (a *Animator) Idle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, st := range a.states {
		if st.timer != nil {
			return false
		}
	}
	return true
}

// Remove cancels any pending step for the message and forgets its state.
func (a *Animator) Remove(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.states[id]; ok {
		a.stopLocked(st)
		delete(a.states, id)
	}
}

// Close cancels all pending steps. Later updates are ignored.
func (a *Animator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, st := range a.states {
		a.stopLocked(st)
		delete(a.states, id)
	}
	a.closed = true
}
