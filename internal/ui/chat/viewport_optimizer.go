// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Cipher Bot terminal UI.
package chat

import (
	"hash/maphash"
)

// =============================================================================
// VIEWPORT OPTIMIZER
// =============================================================================

// ViewportOptimizer skips viewport updates whose content did not change.
// Reveal ticks for one message re-render the whole transcript, and most
// events (a copied marker expiring elsewhere, a theme event echoing a
// change already applied) produce identical text.
type ViewportOptimizer struct {
	seed     maphash.Seed
	lastHash uint64
	primed   bool

	updates uint64
	skipped uint64
}

// NewViewportOptimizer creates an optimizer whose first check always passes.
func NewViewportOptimizer() *ViewportOptimizer {
	return &ViewportOptimizer{seed: maphash.MakeSeed()}
}

// ShouldUpdate reports whether content differs from the last accepted one.
func (vo *ViewportOptimizer) ShouldUpdate(content string) bool {
	vo.updates++
	h := maphash.String(vo.seed, content)
	if vo.primed && h == vo.lastHash {
		vo.skipped++
		return false
	}
	vo.lastHash = h
	vo.primed = true
	return true
}

// ForceUpdate makes the next ShouldUpdate pass, e.g. after a resize.
func (vo *ViewportOptimizer) ForceUpdate() {
	vo.primed = false
}

// Stats returns the number of checks and how many were skipped.
func (vo *ViewportOptimizer) Stats() (total, skipped uint64) {
	return vo.updates, vo.skipped
}
