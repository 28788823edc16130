// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides settings persistence for cipherbot.
//
// Settings are small string values keyed by name, kept in a SQLite database
// (pure Go driver, no cgo). Chat history is deliberately not stored.
//
// # Usage
//
//	s, err := storage.Open(cfg.StoragePath())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	err = s.Set("cipherBotTheme", "terminalGreen")
//	name, ok, err := s.Get("cipherBotTheme")
//
// # Storage Location
//
// The database lives at ~/.cipherbot/settings.db unless configured otherwise.
// Open(":memory:") gives a throwaway store for tests.
package storage
