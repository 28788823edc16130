// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates the character-by-character reveal of streaming
// bot messages and tracks short-lived per-block UI flags.
package reveal

import (
	"sync"
	"time"
)

// fakeScheduler records scheduled calls and fires them on demand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// pending returns the number of timers that are neither stopped nor fired.
func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// tick fires every pending timer once and reports how many fired.
func (s *fakeScheduler) tick() int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// fireStale fires a timer even though it was stopped, as a racing wall
// clock timer could.
func (s *fakeScheduler) fireStale(i int) {
	s.mu.Lock()
	t := s.timers[i]
	s.mu.Unlock()
	t.f()
}

// drain ticks until nothing is pending, up to limit ticks.
func (s *fakeScheduler) drain(limit int) int {
	ticks := 0
	for ticks < limit && s.tick() > 0 {
		ticks++
	}
	return ticks
}
