// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display blocks.
package render

import (
	"regexp"
	"strings"
)

// =============================================================================
// TOKEN TYPES
// =============================================================================

// TokenKind classifies a run of highlighted code.
type TokenKind string

const (
	TokenPlain       TokenKind = ""
	TokenComment     TokenKind = "comment"
	TokenString      TokenKind = "string"
	TokenKeyword     TokenKind = "keyword"
	TokenNumber      TokenKind = "number"
	TokenFunction    TokenKind = "function"
	TokenPunctuation TokenKind = "punctuation"
)

// Token is a run of source text with a single classification.
type Token struct {
	Kind TokenKind
	Text string
}

// ClassName returns the CSS class used for the token in HTML output.
func (k TokenKind) ClassName() string {
	if k == TokenPlain {
		return ""
	}
	return "hljs-" + string(k)
}

// =============================================================================
// JAVASCRIPT RULES
// =============================================================================

var jsKeywords = []string{
	"const", "let", "var", "function", "return", "if", "else", "for", "while",
	"switch", "case", "default", "break", "continue", "new", "this", "import",
	"export", "from", "async", "await", "try", "catch", "finally", "class",
	"extends", "super", "true", "false", "null", "undefined", "yield", "typeof",
	"instanceof", "delete", "in", "void", "debugger", "with",
}

var jsKeywordSet = func() map[string]bool {
	set := make(map[string]bool, len(jsKeywords))
	for _, kw := range jsKeywords {
		set[kw] = true
	}
	return set
}()

type highlightRule struct {
	kind TokenKind
	re   *regexp.Regexp
	// group selects the submatch that gets classified; 0 is the whole match.
	group int
}

// jsRules run in order; each rule only sees text no earlier rule claimed.
var jsRules = []highlightRule{
	{kind: TokenComment, re: regexp.MustCompile(`//.*`)},
	{kind: TokenComment, re: regexp.MustCompile(`/\*[\s\S]*?\*/`)},
	{kind: TokenString, re: regexp.MustCompile("\"(?:\\\\.|[^\"\\\\])*\"|'(?:\\\\.|[^'\\\\])*'|`(?:\\\\.|[^`\\\\])*`")},
	{kind: TokenKeyword, re: regexp.MustCompile(`\b(?:` + strings.Join(jsKeywords, "|") + `)\b`)},
	{kind: TokenNumber, re: regexp.MustCompile(`\b(?:0x[0-9a-fA-F]+|\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)\b`)},
	{kind: TokenFunction, re: regexp.MustCompile(`([a-zA-Z_]\w*)\s*\(`), group: 1},
	{kind: TokenPunctuation, re: regexp.MustCompile(`[+\-*/%=&|<>!^~?:.,;(){}\[\]]`)},
}

// Highlightable reports whether the language has highlighting rules.
// Matching is case-insensitive; only the JavaScript family is supported.
func Highlightable(language string) bool {
	switch strings.ToLower(language) {
	case "js", "javascript":
		return true
	}
	return false
}

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits code into classified runs. The runs concatenate back to
// the input exactly. Unsupported languages yield a single plain token.
func Tokenize(code, language string) []Token {
	if code == "" {
		return nil
	}
	tokens := []Token{{Kind: TokenPlain, Text: code}}
	if !Highlightable(language) {
		return tokens
	}
	for _, rule := range jsRules {
		tokens = applyRule(tokens, rule)
	}
	return mergePlain(tokens)
}

// applyRule classifies matches of rule inside the plain tokens only, so
// spans claimed by earlier rules are never split or re-wrapped.
func applyRule(tokens []Token, rule highlightRule) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != TokenPlain {
			out = append(out, tok)
			continue
		}
		pos := 0
		for _, loc := range rule.re.FindAllStringSubmatchIndex(tok.Text, -1) {
			start, end := loc[2*rule.group], loc[2*rule.group+1]
			if start < 0 || start == end {
				continue
			}
			if rule.kind == TokenFunction && jsKeywordSet[tok.Text[start:end]] {
				continue
			}
			if start > pos {
				out = append(out, Token{Kind: TokenPlain, Text: tok.Text[pos:start]})
			}
			out = append(out, Token{Kind: rule.kind, Text: tok.Text[start:end]})
			pos = end
		}
		if pos < len(tok.Text) {
			out = append(out, Token{Kind: TokenPlain, Text: tok.Text[pos:]})
		}
	}
	return out
}

func mergePlain(tokens []Token) []Token {
	out := tokens[:0]
	for _, tok := range tokens {
		if n := len(out); n > 0 && tok.Kind == TokenPlain && out[n-1].Kind == TokenPlain {
			out[n-1].Text += tok.Text
			continue
		}
		out = append(out, tok)
	}
	return out
}

// =============================================================================
// HTML OUTPUT
// =============================================================================

var codeEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeCode escapes &, < and > for safe insertion into HTML.
func EscapeCode(s string) string {
	return codeEscaper.Replace(s)
}

// Highlight returns code as HTML. Every byte of source text is escaped;
// JavaScript runs are additionally wrapped in <span class="hljs-..."> tags.
func Highlight(code, language string) string {
	var sb strings.Builder
	for _, tok := range Tokenize(code, language) {
		if tok.Kind == TokenPlain {
			sb.WriteString(EscapeCode(tok.Text))
			continue
		}
		sb.WriteString(`<span class="`)
		sb.WriteString(tok.Kind.ClassName())
		sb.WriteString(`">`)
		sb.WriteString(EscapeCode(tok.Text))
		sb.WriteString(`</span>`)
	}
	return sb.String()
}
