// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal animates the character-by-character reveal of streaming
// bot messages and tracks short-lived per-block UI flags.
package reveal

import (
	"sync"
	"time"
)

// DefaultCopiedReset is how long a code block keeps its "copied" flag.
const DefaultCopiedReset = 2 * time.Second

type copiedFlag struct {
	timer Timer
	gen   uint64
}

// CopyTracker holds self-clearing "copied" flags keyed by block identity.
// Flags are independent of each other. It is safe for concurrent use.
type CopyTracker struct {
	mu       sync.Mutex
	reset    time.Duration
	sched    Scheduler
	onChange func(key string)
	flags    map[string]*copiedFlag
	gen      uint64
}

// NewCopyTracker creates a tracker whose flags clear after reset. A nil
// scheduler uses the wall clock; onChange may be nil.
func NewCopyTracker(reset time.Duration, sched Scheduler, onChange func(key string)) *CopyTracker {
	if reset <= 0 {
		reset = DefaultCopiedReset
	}
	if sched == nil {
		sched = SystemScheduler{}
	}
	return &CopyTracker{
		reset:    reset,
		sched:    sched,
		onChange: onChange,
		flags:    make(map[string]*copiedFlag),
	}
}

// Mark sets the flag for key and restarts its reset delay.
func (c *CopyTracker) Mark(key string) {
	c.mu.Lock()
	if f, ok := c.flags[key]; ok {
		f.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.flags[key] = &copiedFlag{
		gen: gen,
		timer: c.sched.AfterFunc(c.reset, func() {
			c.clear(key, gen)
		}),
	}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(key)
	}
}

func (c *CopyTracker) clear(key string, gen uint64) {
	c.mu.Lock()
	f, ok := c.flags[key]
	if !ok || f.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.flags, key)
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(key)
	}
}

// Copied reports whether the flag for key is set.
func (c *CopyTracker) Copied(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flags[key]
	return ok
}

// Close stops all pending resets and clears every flag.
func (c *CopyTracker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, f := range c.flags {
		f.timer.Stop()
		delete(c.flags, key)
	}
}
