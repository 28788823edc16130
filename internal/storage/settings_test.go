// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides settings persistence for cipherbot.
package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// SETTINGS STORE TESTS
// =============================================================================

func openTemp(t *testing.T) (*Settings, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSettings_GetMissing(t *testing.T) {
	s, _ := openTemp(t)

	v, ok, err := s.Get("cipherBotTheme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || v != "" {
		t.Errorf("Get() = %q, %v; want empty, false", v, ok)
	}
}

func TestSettings_SetAndGet(t *testing.T) {
	s, _ := openTemp(t)

	if err := s.Set("cipherBotTheme", "terminalGreen"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set("cipherBotTheme", "arcanePurple"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	v, ok, err := s.Get("cipherBotTheme")
	if err != nil || !ok {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
	if v != "arcanePurple" {
		t.Errorf("Get() = %q, want arcanePurple", v)
	}
}

func TestSettings_PersistsAcrossOpen(t *testing.T) {
	s, path := openTemp(t)
	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer again.Close()

	v, ok, err := again.Get("k")
	if err != nil || !ok || v != "v" {
		t.Errorf("after reopen Get() = %q, %v, %v", v, ok, err)
	}
}

func TestSettings_DeleteAndAll(t *testing.T) {
	s, _ := openTemp(t)
	s.Set("a", "1")
	s.Set("b", "2")

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all["b"] != "2" {
		t.Errorf("All() = %v", all)
	}
}

func TestSettings_Validation(t *testing.T) {
	s, _ := openTemp(t)

	if err := s.Set("", "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set(empty key) = %v, want ErrInvalidKey", err)
	}
	if _, _, err := s.Get(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Get(empty key) = %v, want ErrInvalidKey", err)
	}
	big := strings.Repeat("x", MaxValueSize+1)
	if err := s.Set("k", big); !errors.Is(err, ErrValueTooBig) {
		t.Errorf("Set(big) = %v, want ErrValueTooBig", err)
	}
}

func TestSettings_Closed(t *testing.T) {
	s, _ := openTemp(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := s.Set("k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after close = %v, want ErrClosed", err)
	}
	if _, _, err := s.Get("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after close = %v, want ErrClosed", err)
	}
}

func TestSettings_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	defer s.Close()

	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get("k"); !ok || v != "v" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") should fail")
	}
}
