// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// USER PALETTES
// =============================================================================

// UserPrefix marks palette names loaded from the themes directory.
const UserPrefix = "user:"

// userFile is the on-disk form of a user palette.
//
//	display_name = "Midnight"
//	base = "cipherDefault"
//
//	[colors]
//	"--bg-primary" = "#000000"
//
//	[syntax]
//	keyword = "#ff79c6"
type userFile struct {
	DisplayName string            `toml:"display_name"`
	Base        string            `toml:"base"`
	Colors      map[string]string `toml:"colors"`
	Syntax      Syntax            `toml:"syntax"`
}

// colorValueRe accepts hex colors, named colors and rgb()/hsl() forms.
// Anything able to close a declaration or rule is rejected.
var colorValueRe = regexp.MustCompile(`^[#a-zA-Z0-9(),.%\s-]{1,64}$`)

// ValidColor reports whether v is safe to emit as a CSS variable value.
func ValidColor(v string) bool {
	return colorValueRe.MatchString(v)
}

// LoadUserFile parses one user palette. The palette name is "user:" plus the
// file name without extension; missing values come from the base palette.
func LoadUserFile(path string) (Palette, error) {
	var f userFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to decode theme %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Palette{}, fmt.Errorf("theme %s: unknown keys %v", path, undecoded)
	}

	baseName := f.Base
	if baseName == "" {
		baseName = DefaultName
	}
	base, ok := Builtin(baseName)
	if !ok {
		return Palette{}, fmt.Errorf("theme %s: unknown base %q", path, baseName)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p := base
	p.Name = UserPrefix + stem
	p.DisplayName = f.DisplayName
	if p.DisplayName == "" {
		p.DisplayName = stem
	}

	var errs []error
	for key, value := range f.Colors {
		if !slices.Contains(ColorKeys, key) {
			errs = append(errs, fmt.Errorf("unknown color %q", key))
			continue
		}
		if !ValidColor(value) {
			errs = append(errs, fmt.Errorf("invalid value for %s: %q", key, value))
			continue
		}
		p.Colors[key] = value
	}
	for _, e := range f.Syntax.entries() {
		if e.Value != "" && !ValidColor(e.Value) {
			errs = append(errs, fmt.Errorf("invalid value for syntax.%s: %q", e.Name, e.Value))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Palette{}, fmt.Errorf("theme %s: %w", path, err)
	}
	p.Syntax = f.Syntax.merge(base.Syntax)
	return p, nil
}

// LoadUserDir loads every *.toml palette in dir. A missing directory yields
// no palettes. Files that fail to parse are reported together; the valid
// ones are still returned.
func LoadUserDir(dir string) ([]Palette, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory: %w", err)
	}

	var palettes []Palette
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		p, err := LoadUserFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		palettes = append(palettes, p)
	}
	slices.SortFunc(palettes, func(a, b Palette) int { return strings.Compare(a.Name, b.Name) })
	return palettes, errors.Join(errs...)
}
