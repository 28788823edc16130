// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the Cipher Bot browser UI.
package server

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/base64"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/jeranaias/cipherbot/internal/chat"
)

//go:embed web/index.html
var indexHTML string

//go:embed web/static
var webFS embed.FS

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// pageData holds everything the index template needs.
type pageData struct {
	Title        string
	Nonce        string
	ThemeCSS     template.CSS
	ThemeName    string
	Messages     []template.HTML
	Initializing bool
	InitText     string
	Error        *ErrorJSON
	Busy         bool
}

func staticHandler() http.Handler {
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(static)
}

// newNonce returns a random CSP nonce.
func newNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// handleIndex handles GET /. The page carries the current palette as an
// inline :root rule and the messages rendered so far; later changes
// arrive over /api/events.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	palette := s.palette()
	data := pageData{
		Title:     "Cipher Bot",
		Nonce:     newNonce(),
		ThemeName: palette.Name,
		// Palette values are validated on load, see theme.ValidColor.
		ThemeCSS:     template.CSS(palette.CSS()), //nolint:gosec // validated color values
		Initializing: s.ctrl.Initializing() || (!s.ctrl.Ready() && s.ctrl.LastError() == nil),
		InitText:     chat.InitializingText,
		Error:        errorJSON(s.ctrl.LastError()),
		Busy:         s.ctrl.Busy(),
	}
	for _, v := range s.ctrl.Views() {
		data.Messages = append(data.Messages, template.HTML(v.HTML())) //nolint:gosec // renderer escapes all text
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		slog.Error("failed to render page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy",
		ContentSecurityPolicy+"; style-src 'self' 'nonce-"+data.Nonce+"'")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
