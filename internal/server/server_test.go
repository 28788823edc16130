// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the Cipher Bot browser UI.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/cipherbot/internal/chat"
	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/stream"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeSession struct {
	mu      sync.Mutex
	replies []stream.Source
}

func (s *fakeSession) StreamReply(context.Context, string) stream.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return stream.FromChunks("ok")
	}
	src := s.replies[0]
	s.replies = s.replies[1:]
	return src
}

type fakeProvider struct {
	mu      sync.Mutex
	session *fakeSession
	err     error
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-1" }

func (p *fakeProvider) NewSession(context.Context) (llm.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

func (p *fakeProvider) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// blockingSource streams nothing until release is closed.
func blockingSource(release <-chan struct{}) stream.Source {
	return func(yield func(stream.Chunk, error) bool) {
		<-release
		yield(stream.Chunk{Text: "done"}, nil)
	}
}

type testEnv struct {
	srv      *Server
	ctrl     *chat.Controller
	themes   *theme.Manager
	provider *fakeProvider
}

func newTestEnv(t *testing.T, initErr error, replies ...stream.Source) *testEnv {
	t.Helper()
	provider := &fakeProvider{session: &fakeSession{replies: replies}, err: initErr}
	themes := theme.NewManager(nil)
	require.NoError(t, themes.Load())

	ctrl := chat.New(provider, chat.WithCadence(time.Millisecond), chat.WithThemes(themes))
	t.Cleanup(ctrl.Close)
	_ = ctrl.Init(context.Background())

	srv := New(ctrl, themes, Config{Version: "test", RateLimit: -1})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, ctrl: ctrl, themes: themes, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// waitSettled waits until the message is fully revealed.
func (e *testEnv) waitSettled(t *testing.T, id string) chat.MessageView {
	t.Helper()
	var view chat.MessageView
	require.Eventually(t, func() bool {
		v, ok := e.ctrl.View(id)
		view = v
		return ok && !v.Frame.Streaming && v.Frame.Settled
	}, 2*time.Second, 5*time.Millisecond)
	return view
}

// =============================================================================
// PAGE
// =============================================================================

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "--bg-primary")
	assert.Contains(t, body, `data-theme="cipherDefault"`)
	assert.Contains(t, body, "/static/app.js")

	csp := w.Header().Get("Content-Security-Policy")
	require.Contains(t, csp, "'nonce-")
	nonce := csp[strings.Index(csp, "'nonce-")+len("'nonce-"):]
	nonce = strings.TrimSuffix(nonce, "'")
	assert.Contains(t, body, `<style nonce="`+nonce+`">`)
}

func TestHandleIndex_RendersEscapedMessages(t *testing.T) {
	env := newTestEnv(t, nil, stream.FromChunks("fine"))

	id, err := env.ctrl.Send(context.Background(), "<script>alert(1)</script>")
	require.NoError(t, err)
	env.waitSettled(t, id)

	body := env.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Contains(t, body, `id="msg-`+id+`"`)
}

func TestHandleIndex_UnknownPathIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nope", "").Code)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		w := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Body.String(), path)
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

func TestHandleSend(t *testing.T) {
	env := newTestEnv(t, nil, stream.FromChunks("Hel", "lo"))

	w := env.do(t, http.MethodPost, "/api/messages", `{"text":"hi"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	resp := decode[SendResponse](t, w)
	require.NotEmpty(t, resp.ID)

	view := env.waitSettled(t, resp.ID)
	assert.Equal(t, "Hello", view.Frame.Text)

	list := decode[MessagesResponse](t, env.do(t, http.MethodGet, "/api/messages", ""))
	require.Len(t, list.Messages, 2)
	assert.Equal(t, "user", list.Messages[0].Sender)
	assert.Equal(t, "bot", list.Messages[1].Sender)
	assert.Equal(t, resp.ID, list.Messages[1].ID)
	assert.Contains(t, list.Messages[1].HTML, "Hello")
	assert.True(t, list.Status.Ready)
	assert.Nil(t, list.Status.Error)
	assert.Equal(t, "hi", list.Title)
}

func TestHandleSend_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"blank input is ignored", `{"text":"   "}`, http.StatusNoContent},
		{"invalid json", `{"text":`, http.StatusBadRequest},
		{"too long", `{"text":"` + strings.Repeat("a", MaxMessageLength+1) + `"}`, http.StatusBadRequest},
		{"body too large", `{"text":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(t, http.MethodPost, "/api/messages", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Empty(t, env.ctrl.Views())
		})
	}
}

func TestHandleSend_Busy(t *testing.T) {
	release := make(chan struct{})
	env := newTestEnv(t, nil, blockingSource(release))

	w := env.do(t, http.MethodPost, "/api/messages", `{"text":"first"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", `{"text":"second"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	env.ctrl.Wait()
}

func TestHandleSend_NotReady(t *testing.T) {
	env := newTestEnv(t, llm.ErrNoCredential)

	w := env.do(t, http.MethodPost, "/api/messages", `{"text":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleMessages_ReportsStreamError(t *testing.T) {
	env := newTestEnv(t, nil, stream.Failing(llm.ErrEmptyReply))

	id, err := env.ctrl.Send(context.Background(), "hi")
	require.NoError(t, err)
	env.waitSettled(t, id)

	list := decode[MessagesResponse](t, env.do(t, http.MethodGet, "/api/messages", ""))
	require.NotNil(t, list.Status.Error)
	assert.Equal(t, llm.ErrEmptyReply.Error(), list.Status.Error.Message)
	assert.Equal(t, "provider", list.Status.Error.Kind)
	assert.False(t, list.Status.Error.Retry)
	assert.False(t, list.Status.Busy)
}

// =============================================================================
// COPY
// =============================================================================

func TestHandleCopy(t *testing.T) {
	env := newTestEnv(t, nil, stream.FromChunks("Try:\n```js\nconst a = 1;\n```"))

	id, err := env.ctrl.Send(context.Background(), "code please")
	require.NoError(t, err)
	env.waitSettled(t, id)

	w := env.do(t, http.MethodPost, "/api/copy", `{"id":"`+id+`","block":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "const a = 1;", decode[CopyResponse](t, w).Code)

	view, _ := env.ctrl.View(id)
	assert.Contains(t, view.HTML(), "Copied!")

	w = env.do(t, http.MethodPost, "/api/copy", `{"id":"`+id+`","block":0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, "/api/copy", `{"id":"missing","block":0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// THEMES
// =============================================================================

func TestHandleThemes(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := decode[ThemesResponse](t, env.do(t, http.MethodGet, "/api/themes", ""))
	assert.Equal(t, theme.DefaultName, resp.Current)
	names := make([]string, 0, len(resp.Themes))
	for _, th := range resp.Themes {
		names = append(names, th.Name)
		assert.NotEmpty(t, th.DisplayName)
		assert.Empty(t, th.Vars)
	}
	assert.Equal(t, theme.BuiltinNames(), names)
	assert.NotEmpty(t, resp.Chroma)
}

func TestHandleSetTheme(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/theme", `{"name":"terminalGreen"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[ThemeJSON](t, w)
	assert.Equal(t, "terminalGreen", got.Name)
	assert.NotEmpty(t, got.Vars)
	assert.Equal(t, "terminalGreen", env.themes.Current().Name)
	assert.Equal(t, "terminalGreen", theme.Applied().Name)

	page := env.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, page, `data-theme="terminalGreen"`)
}

func TestHandleSetTheme_UnknownFallsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.themes.Set("arcanePurple")
	require.NoError(t, err)

	got := decode[ThemeJSON](t, env.do(t, http.MethodPost, "/api/theme", `{"name":"nope"}`))
	assert.Equal(t, theme.DefaultName, got.Name)
}

func TestThemeRoutesWithoutManager(t *testing.T) {
	provider := &fakeProvider{session: &fakeSession{}}
	ctrl := chat.New(provider)
	t.Cleanup(ctrl.Close)
	srv := New(ctrl, nil, Config{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/themes", ""},
		{http.MethodPost, "/api/theme", `{"name":"x"}`},
	} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), `data-theme="cipherDefault"`)
}

// =============================================================================
// SESSION AND ERRORS
// =============================================================================

func TestHandleRetry(t *testing.T) {
	env := newTestEnv(t, llm.ErrNoCredential)

	list := decode[MessagesResponse](t, env.do(t, http.MethodGet, "/api/messages", ""))
	require.NotNil(t, list.Status.Error)
	assert.True(t, list.Status.Error.Retry)
	assert.Equal(t, "config", list.Status.Error.Kind)

	w := env.do(t, http.MethodPost, "/api/session/retry", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env.provider.setErr(nil)
	w = env.do(t, http.MethodPost, "/api/session/retry", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	status := decode[StatusJSON](t, w)
	assert.True(t, status.Ready)
	assert.Nil(t, status.Error)
}

func TestHandleDismissError(t *testing.T) {
	env := newTestEnv(t, llm.ErrNoCredential)
	require.Error(t, env.ctrl.LastError())

	w := env.do(t, http.MethodDelete, "/api/error", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoError(t, env.ctrl.LastError())
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name    string
		initErr error
		want    string
	}{
		{"ready", nil, "ok"},
		{"init failed", llm.ErrNoCredential, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.initErr)
			w := env.do(t, http.MethodGet, "/health", "")
			require.Equal(t, http.StatusOK, w.Code)
			health := decode[HealthResponse](t, w)
			assert.Equal(t, tt.want, health.Status)
			assert.Equal(t, "test", health.Version)
			assert.Equal(t, "fake", health.Provider)
			assert.Equal(t, "fake-1", health.Model)
		})
	}
}

// =============================================================================
// EVENT STREAM
// =============================================================================

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("event stream ended: %v", sc.Err())
	return ev
}

func openEvents(t *testing.T, env *testEnv) *bufio.Scanner {
	t.Helper()
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewScanner(resp.Body)
}

func TestHandleEvents_StreamsMessages(t *testing.T) {
	env := newTestEnv(t, nil, stream.FromChunks("Hi!"))
	sc := openEvents(t, env)

	first := readEvent(t, sc)
	require.Equal(t, "ready", first.name)
	var status StatusJSON
	require.NoError(t, json.Unmarshal([]byte(first.data), &status))
	assert.True(t, status.Ready)

	require.Eventually(t, func() bool { return env.srv.hub.count() == 1 }, time.Second, 5*time.Millisecond)
	id, err := env.ctrl.Send(context.Background(), "hello")
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ev := readEvent(t, sc)
		if ev.name != "message" {
			continue
		}
		var msg struct {
			MessageJSON
			Busy bool `json:"busy"`
		}
		require.NoError(t, json.Unmarshal([]byte(ev.data), &msg))
		if msg.ID == id && strings.Contains(msg.HTML, "Hi!") && !msg.Streaming {
			return
		}
	}
	t.Fatal("final message event not received")
}

func TestHandleEvents_Theme(t *testing.T) {
	env := newTestEnv(t, nil)
	sc := openEvents(t, env)
	require.Equal(t, "ready", readEvent(t, sc).name)
	require.Eventually(t, func() bool { return env.srv.hub.count() == 1 }, time.Second, 5*time.Millisecond)

	_, err := env.themes.Set("classicLight")
	require.NoError(t, err)

	ev := readEvent(t, sc)
	require.Equal(t, "theme", ev.name)
	var got ThemeJSON
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Equal(t, "classicLight", got.Name)
	assert.NotEmpty(t, got.Vars)
}

func TestHandleEvents_ShutdownEndsStream(t *testing.T) {
	env := newTestEnv(t, nil)
	sc := openEvents(t, env)
	require.Equal(t, "ready", readEvent(t, sc).name)

	require.NoError(t, env.srv.Shutdown(context.Background()))
	for sc.Scan() {
	}
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/api/events", "").Code)
}

// =============================================================================
// HUB
// =============================================================================

func TestClientCoalescesEvents(t *testing.T) {
	c := newClient()
	c.add(chat.Event{Kind: chat.EventMessage, MessageID: "a"})
	c.add(chat.Event{Kind: chat.EventMessage, MessageID: "b"})
	c.add(chat.Event{Kind: chat.EventMessage, MessageID: "a"})
	c.add(chat.Event{Kind: chat.EventTheme})
	c.add(chat.Event{Kind: chat.EventMessage})

	assert.Len(t, c.wake, 1)
	p := c.take()
	assert.Equal(t, []string{"a", "b"}, p.messages)
	assert.True(t, p.theme)
	assert.False(t, p.error)
	assert.False(t, p.ready)
	next := c.take()
	assert.True(t, next.empty())
}

func TestWriteEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	w := httptest.NewRecorder()
	env.srv.writeEvent(w, "error", map[string]string{"a": "b"})
	assert.Equal(t, "event: error\ndata: {\"a\":\"b\"}\n\n", w.Body.String())
}
