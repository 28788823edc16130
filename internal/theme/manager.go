// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
package theme

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// StorageKey is the settings key holding the selected palette name.
const StorageKey = "cipherBotTheme"

// Store persists small string settings.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// =============================================================================
// APPLIED PALETTE
// =============================================================================

var applied atomic.Pointer[Palette]

// Applied returns the palette currently applied to the process. Before any
// Manager applies one it is the default palette.
func Applied() Palette {
	if p := applied.Load(); p != nil {
		return p.Clone()
	}
	return Default()
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager resolves palette names, persists the selection and applies it.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	userDir string
	user    map[string]Palette
	current Palette
	loaded  bool

	subMu   sync.Mutex
	subs    map[int]func(Palette)
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithUserDir sets the directory user palettes are loaded from.
func WithUserDir(dir string) Option {
	return func(m *Manager) {
		m.userDir = dir
	}
}

// NewManager creates a manager. A nil store keeps the selection in memory.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		store = &memoryStore{values: make(map[string]string)}
	}
	m := &Manager{
		store:   store,
		user:    make(map[string]Palette),
		current: Default(),
		subs:    make(map[int]func(Palette)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UserDir returns the user palette directory, or "" if none is configured.
func (m *Manager) UserDir() string {
	return m.userDir
}

// Load reads the user palettes and the stored selection, then applies it.
// An unknown or missing stored name selects the default palette without
// rewriting the store.
func (m *Manager) Load() error {
	if err := m.ReloadUser(); err != nil {
		slog.Warn("some user themes could not be loaded", "dir", m.userDir, "error", err)
	}

	name, ok, err := m.store.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read stored theme: %w", err)
	}

	p := Default()
	if ok {
		if resolved, found := m.Resolve(name); found {
			p = resolved
		} else {
			slog.Debug("stored theme not available", "theme", name)
		}
	}

	m.mu.Lock()
	m.current = p
	m.loaded = true
	m.mu.Unlock()

	m.Apply(p)
	return nil
}

// Loaded reports whether Load has completed.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// ReloadUser rereads the user palette directory. When the current palette is
// a user palette it is refreshed and reapplied.
func (m *Manager) ReloadUser() error {
	palettes, err := LoadUserDir(m.userDir)

	m.mu.Lock()
	m.user = make(map[string]Palette, len(palettes))
	for _, p := range palettes {
		m.user[p.Name] = p
	}
	refreshed, isUser := m.user[m.current.Name]
	if isUser {
		m.current = refreshed.Clone()
	}
	loaded := m.loaded
	m.mu.Unlock()

	if isUser && loaded {
		m.Apply(refreshed)
	}
	return err
}

// Resolve looks up a palette by name across built-in, user and chroma
// palettes.
func (m *Manager) Resolve(name string) (Palette, bool) {
	if p, ok := Builtin(name); ok {
		return p, true
	}
	if strings.HasPrefix(name, UserPrefix) {
		m.mu.RLock()
		p, ok := m.user[name]
		m.mu.RUnlock()
		if ok {
			return p.Clone(), true
		}
		return Palette{}, false
	}
	if strings.HasPrefix(name, ChromaPrefix) {
		p, err := FromChroma(name)
		return p, err == nil
	}
	return Palette{}, false
}

// Names returns every selectable palette name: built-ins first, then user
// palettes. Chroma palettes are selectable but not listed; see ChromaNames.
func (m *Manager) Names() []string {
	names := BuiltinNames()
	m.mu.RLock()
	user := make([]string, 0, len(m.user))
	for name := range m.user {
		user = append(user, name)
	}
	m.mu.RUnlock()
	slices.Sort(user)
	return append(names, user...)
}

// Current returns the selected palette.
func (m *Manager) Current() Palette {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Set selects, persists and applies a palette. An unknown name logs a
// warning and selects the default palette, which is then persisted instead.
// The returned palette is the one applied; the error reports only a failure
// to persist.
func (m *Manager) Set(name string) (Palette, error) {
	p, ok := m.Resolve(name)
	if !ok {
		slog.Warn("theme not found, defaulting", "theme", name, "default", DefaultName)
		p = Default()
	}

	m.mu.Lock()
	m.current = p
	m.loaded = true
	m.mu.Unlock()

	m.Apply(p)

	if err := m.store.Set(StorageKey, p.Name); err != nil {
		return p, fmt.Errorf("failed to persist theme: %w", err)
	}
	return p, nil
}

// Next selects the palette after the current one in Names order.
func (m *Manager) Next() (Palette, error) {
	names := m.Names()
	idx := slices.Index(names, m.Current().Name)
	return m.Set(names[(idx+1)%len(names)])
}

// Apply makes p the process-wide applied palette and notifies subscribers.
func (m *Manager) Apply(p Palette) {
	snapshot := p.Clone()
	applied.Store(&snapshot)

	m.subMu.Lock()
	subs := make([]func(Palette), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(p.Clone())
	}
}

// Subscribe registers fn to be called with every applied palette. The
// returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Palette)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// UserPath returns the file backing a user palette name, or "" for other
// palettes.
func (m *Manager) UserPath(name string) string {
	stem, ok := strings.CutPrefix(name, UserPrefix)
	if !ok || m.userDir == "" {
		return ""
	}
	return filepath.Join(m.userDir, stem+".toml")
}

// memoryStore is the Store used when none is given.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
