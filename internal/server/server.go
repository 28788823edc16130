// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the Cipher Bot browser UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/cipherbot/internal/chat"
	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// MaxRequestBodySize bounds JSON request bodies.
	MaxRequestBodySize = 64 * 1024

	// MaxMessageLength is the longest accepted chat message, in runes.
	MaxMessageLength = 16000

	// KeepAliveInterval is how often an idle event stream sends a comment.
	KeepAliveInterval = 15 * time.Second
)

// ============================================================================
// SERVER
// ============================================================================

// Config configures a Server.
type Config struct {
	// Addr is the listen address; DefaultAddr when empty.
	Addr string
	// RateLimit is the sustained POST rate per client per second. Zero
	// uses DefaultRateLimit; a negative value disables limiting.
	RateLimit float64
	// RateBurst is the POST burst per client; DefaultRateBurst when zero.
	RateBurst int
	// Version is reported by /health.
	Version string
	// Logger receives request logs; slog.Default when nil.
	Logger *slog.Logger
}

// Server serves one chat controller to browsers.
type Server struct {
	cfg    Config
	ctrl   *chat.Controller
	themes *theme.Manager
	router *http.ServeMux
	hub    *hub

	handler     http.Handler
	unsubscribe func()

	mu     sync.Mutex
	server *http.Server
}

// New creates a Server for ctrl. themes may be nil, in which case the
// built-in default palette is served and theme routes report 404.
func New(ctrl *chat.Controller, themes *theme.Manager, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		themes: themes,
		router: http.NewServeMux(),
		hub:    newHub(),
	}
	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(cfg.Logger),
		SecurityHeadersMiddleware(),
		RateLimitMiddleware(NewRateLimiter(cfg.RateLimit, cfg.RateBurst)),
	)(s.router)
	s.unsubscribe = ctrl.Subscribe(s.hub.publish)
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.Handle("GET /static/", http.StripPrefix("/static/", staticHandler()))

	s.router.HandleFunc("GET /api/events", s.handleEvents)
	s.router.HandleFunc("GET /api/messages", s.handleMessages)
	s.router.HandleFunc("POST /api/messages", s.handleSend)
	s.router.HandleFunc("POST /api/copy", s.handleCopy)
	s.router.HandleFunc("GET /api/themes", s.handleThemes)
	s.router.HandleFunc("POST /api/theme", s.handleSetTheme)
	s.router.HandleFunc("POST /api/session/retry", s.handleRetry)
	s.router.HandleFunc("DELETE /api/error", s.handleDismissError)

	s.router.HandleFunc("GET /health", s.handleHealth)
}

// ============================================================================
// API TYPES
// ============================================================================

// MessageJSON is one rendered message.
type MessageJSON struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	HTML      string `json:"html"`
	Streaming bool   `json:"streaming"`
}

// StatusJSON is the session state shown around the message list.
type StatusJSON struct {
	Ready        bool       `json:"ready"`
	Initializing bool       `json:"initializing"`
	Busy         bool       `json:"busy"`
	Error        *ErrorJSON `json:"error"`
}

// ErrorJSON is the banner error.
type ErrorJSON struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	// Retry is set when the error blocks chatting until the session is
	// re-initialized.
	Retry bool `json:"retry"`
}

// MessagesResponse is returned by GET /api/messages.
type MessagesResponse struct {
	Title    string        `json:"title"`
	Status   StatusJSON    `json:"status"`
	Messages []MessageJSON `json:"messages"`
}

// SendRequest is the body of POST /api/messages.
type SendRequest struct {
	Text string `json:"text"`
}

// SendResponse is returned by POST /api/messages.
type SendResponse struct {
	ID string `json:"id"`
}

// CopyRequest is the body of POST /api/copy.
type CopyRequest struct {
	ID    string `json:"id"`
	Block int    `json:"block"`
}

// CopyResponse carries the code to put on the clipboard.
type CopyResponse struct {
	Code string `json:"code"`
}

// ThemeJSON describes a palette and its CSS variables.
type ThemeJSON struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	Vars        []theme.Var `json:"vars,omitempty"`
}

// ThemesResponse is returned by GET /api/themes.
type ThemesResponse struct {
	Current string      `json:"current"`
	Themes  []ThemeJSON `json:"themes"`
	Chroma  []string    `json:"chroma"`
}

// ThemeRequest is the body of POST /api/theme.
type ThemeRequest struct {
	Name string `json:"name"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Clients  int    `json:"clients"`
}

func (s *Server) status() StatusJSON {
	return StatusJSON{
		Ready:        s.ctrl.Ready(),
		Initializing: s.ctrl.Initializing(),
		Busy:         s.ctrl.Busy(),
		Error:        errorJSON(s.ctrl.LastError()),
	}
}

func errorJSON(err error) *ErrorJSON {
	if err == nil {
		return nil
	}
	return &ErrorJSON{
		Message: chat.ErrorText(err),
		Kind:    llm.KindOf(err).String(),
		Retry:   llm.IsConfig(err),
	}
}

func messageJSON(v chat.MessageView) MessageJSON {
	return MessageJSON{
		ID:        v.ID,
		Sender:    v.Sender.String(),
		HTML:      v.HTML(),
		Streaming: v.Frame.Streaming,
	}
}

func (s *Server) palette() theme.Palette {
	if s.themes == nil {
		return theme.Default()
	}
	return s.themes.Current()
}

func themeJSON(p theme.Palette, withVars bool) ThemeJSON {
	t := ThemeJSON{Name: p.Name, DisplayName: p.DisplayName}
	if withVars {
		t.Vars = p.CSSVars()
	}
	return t
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleMessages handles GET /api/messages.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	views := s.ctrl.Views()
	resp := MessagesResponse{
		Title:    s.ctrl.Title(),
		Status:   s.status(),
		Messages: make([]MessageJSON, 0, len(views)),
	}
	for _, v := range views {
		resp.Messages = append(resp.Messages, messageJSON(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSend handles POST /api/messages.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Text) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
		return
	}

	id, err := s.ctrl.Send(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrNotReady), errors.Is(err, chat.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		slog.Error("send failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
	case id == "":
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusAccepted, SendResponse{ID: id})
	}
}

// handleCopy handles POST /api/copy.
func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, err := s.ctrl.Copy(req.ID, req.Block)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CopyResponse{Code: code})
}

// handleThemes handles GET /api/themes.
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		writeError(w, http.StatusNotFound, "themes are not available")
		return
	}
	resp := ThemesResponse{
		Current: s.themes.Current().Name,
		Chroma:  theme.ChromaNames(),
	}
	for _, name := range s.themes.Names() {
		if p, ok := s.themes.Resolve(name); ok {
			resp.Themes = append(resp.Themes, themeJSON(p, false))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSetTheme handles POST /api/theme. An unknown name selects the
// default palette; the response names the palette actually applied.
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		writeError(w, http.StatusNotFound, "themes are not available")
		return
	}
	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.themes.Set(strings.TrimSpace(req.Name))
	if err != nil {
		slog.Warn("theme applied but not saved", "theme", p.Name, "error", err)
	}
	writeJSON(w, http.StatusOK, themeJSON(p, true))
}

// handleRetry handles POST /api/session/retry.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Retry(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": errorJSON(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

// handleDismissError handles DELETE /api/error.
func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	s.ctrl.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:   "ok",
		Version:  s.cfg.Version,
		Provider: s.ctrl.Provider().Name(),
		Model:    s.ctrl.Provider().Model(),
		Clients:  s.hub.count(),
	}
	switch {
	case s.ctrl.Initializing():
		health.Status = "initializing"
	case !s.ctrl.Ready():
		health.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// EVENT STREAM
// ============================================================================

// handleEvents handles GET /api/events. It sends the full status on
// connect, then coalesced change events until the client disconnects or
// the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	c, ok := s.hub.join()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	defer s.hub.leave(c)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})
	w.WriteHeader(http.StatusOK)

	s.writeEvent(w, "ready", s.status())
	if err := rc.Flush(); err != nil {
		slog.Warn("event stream not supported", "error", err)
		return
	}

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.hub.done:
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
		case <-c.wake:
			s.writePending(w, c.take())
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) writePending(w http.ResponseWriter, p pending) {
	if p.ready {
		s.writeEvent(w, "ready", s.status())
	}
	if p.theme {
		s.writeEvent(w, "theme", themeJSON(s.palette(), true))
	}
	for _, id := range p.messages {
		v, ok := s.ctrl.View(id)
		if !ok {
			continue
		}
		s.writeEvent(w, "message", struct {
			MessageJSON
			Busy bool `json:"busy"`
		}{messageJSON(v), s.ctrl.Busy()})
	}
	if p.error {
		s.writeEvent(w, "error", struct {
			Error *ErrorJSON `json:"error"`
		}{errorJSON(s.ctrl.LastError())})
	}
}

// writeEvent writes one named server-sent event with a JSON payload.
func (s *Server) writeEvent(w http.ResponseWriter, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode event", "event", name, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns http.ErrServerClosed after
// a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	slog.Info("server started", "addr", ln.Addr().String(), "version", s.cfg.Version)
	return srv.Serve(ln)
}

// Shutdown ends open event streams and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	s.hub.close()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	slog.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeJSON reads a bounded JSON body into v, writing an error response and
// returning false when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", MaxRequestBodySize))
			return false
		}
		slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// writeError writes {"error": {"message", "code"}}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
