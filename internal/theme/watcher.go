// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
package theme

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading.
const DefaultDebounce = 500 * time.Millisecond

// =============================================================================
// USER PALETTE WATCHER
// =============================================================================

// Watcher reloads the manager's user palettes when a file in the themes
// directory changes. Editors that save by rename are handled by watching the
// directory rather than the file.
type Watcher struct {
	mgr      *Manager
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher for mgr's user directory. A debounce of zero
// uses DefaultDebounce.
func NewWatcher(mgr *Manager, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{mgr: mgr, debounce: debounce}
}

// Start begins watching. It is a no-op when the manager has no user
// directory.
func (w *Watcher) Start() error {
	dir := w.mgr.UserDir()
	if dir == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return errors.New("theme watcher already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return err
	}

	w.watcher = fw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(fw, w.stop, w.done)

	slog.Debug("watching user themes", "dir", dir)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, stop, done := w.watcher, w.stop, w.done
	w.watcher, w.stop, w.done = nil, nil, nil
	w.mu.Unlock()

	if fw == nil {
		return
	}
	close(stop)
	fw.Close()
	<-done
}

func (w *Watcher) loop(fw *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-stop:
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".toml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("theme watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	slog.Debug("user themes changed, reloading")
	if err := w.mgr.ReloadUser(); err != nil {
		slog.Warn("some user themes could not be loaded", "error", err)
	}
}
