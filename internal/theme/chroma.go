// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package theme provides the color palettes of the chat UI and the
// process-wide theme state.
package theme

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// CHROMA PALETTES
// =============================================================================

// ChromaPrefix marks palette names derived from a chroma style.
const ChromaPrefix = "chroma:"

// ChromaNames returns the palette names of every registered chroma style.
func ChromaNames() []string {
	names := chromaStyles.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = ChromaPrefix + n
	}
	return out
}

// FromChroma builds a palette from the chroma style named after the
// "chroma:" prefix. UI colors come from the default palette; code colors
// come from the style.
func FromChroma(name string) (Palette, error) {
	styleName, ok := strings.CutPrefix(name, ChromaPrefix)
	if !ok {
		return Palette{}, fmt.Errorf("not a chroma palette: %q", name)
	}
	style, ok := chromaStyles.Registry[styleName]
	if !ok {
		return Palette{}, fmt.Errorf("unknown chroma style: %q", styleName)
	}

	p := Default()
	p.Name = name
	p.DisplayName = style.Name + " (chroma)"

	bg := style.Get(chroma.Background)
	if bg.Background.IsSet() {
		p.Colors["--code-block-bg"] = bg.Background.String()
	}
	if bg.Colour.IsSet() {
		p.Colors["--code-block-text"] = bg.Colour.String()
	}

	fg := func(t chroma.TokenType, fallback string) string {
		if e := style.Get(t); e.Colour.IsSet() {
			return e.Colour.String()
		}
		return fallback
	}
	base := p.Syntax
	p.Syntax = Syntax{
		Keyword:     fg(chroma.Keyword, base.Keyword),
		String:      fg(chroma.LiteralString, base.String),
		Comment:     fg(chroma.Comment, base.Comment),
		Number:      fg(chroma.LiteralNumber, base.Number),
		Function:    fg(chroma.NameFunction, base.Function),
		Operator:    fg(chroma.Operator, base.Operator),
		Punctuation: fg(chroma.Punctuation, base.Punctuation),
		ClassName:   fg(chroma.NameClass, base.ClassName),
		Tag:         fg(chroma.NameTag, base.Tag),
		Attr:        fg(chroma.NameAttribute, base.Attr),
		Value:       fg(chroma.LiteralString, base.Value),
	}
	return p, nil
}
