// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one Cipher Bot conversation for a front end.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/model"
	"github.com/jeranaias/cipherbot/internal/render"
	"github.com/jeranaias/cipherbot/internal/reveal"
	"github.com/jeranaias/cipherbot/internal/stream"
	"github.com/jeranaias/cipherbot/internal/theme"
)

// InitializingText is shown while the session is being created.
const InitializingText = "Initializing Cipher Bot..."

var (
	// ErrBusy is returned by Send while a reply is still streaming.
	ErrBusy = errors.New("cipher bot is still replying")
	// ErrNotReady is returned by Send before a session exists.
	ErrNotReady = errors.New("chat session is not initialized")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("chat controller is closed")
	// ErrNoCodeBlock is returned by Copy for a missing message or block.
	ErrNoCodeBlock = errors.New("no such code block")
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what changed.
type EventKind int

const (
	// EventMessage: the view of MessageID changed.
	EventMessage EventKind = iota
	// EventError: LastError changed.
	EventError
	// EventReady: initialization finished or started.
	EventReady
	// EventTheme: the applied palette changed.
	EventTheme
)

// String returns the event name used on the wire.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventReady:
		return "ready"
	case EventTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// Event is a change notification. Subscribers re-read state from the
// controller.
type Event struct {
	Kind      EventKind
	MessageID string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Option configures a Controller.
type Option func(*Controller)

// WithCadence sets the reveal step delay.
func WithCadence(d time.Duration) Option {
	return func(c *Controller) { c.cadence = d }
}

// WithCopiedReset sets how long a copied code block stays marked.
func WithCopiedReset(d time.Duration) Option {
	return func(c *Controller) { c.copiedReset = d }
}

// WithScheduler replaces the wall clock used for reveal and copied timers.
func WithScheduler(s reveal.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithThemes forwards palette changes of m as EventTheme.
func WithThemes(m *theme.Manager) Option {
	return func(c *Controller) { c.themes = m }
}

// Controller drives one conversation. It is safe for concurrent use.
type Controller struct {
	provider    llm.Provider
	conv        *model.Conversation
	anim        *reveal.Animator
	copies      *reveal.CopyTracker
	themes      *theme.Manager
	cadence     time.Duration
	copiedReset time.Duration
	sched       reveal.Scheduler

	mu           sync.Mutex
	session      llm.Session
	initializing bool
	busy         bool
	lastErr      error
	closed       bool
	known        []string
	copyOwners   map[string]string

	replies sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	unsubTheme func()
}

// New creates a controller for provider. Call Init before Send.
func New(provider llm.Provider, opts ...Option) *Controller {
	c := &Controller{
		provider:    provider,
		conv:        model.NewConversation(),
		cadence:     reveal.DefaultCadence,
		copiedReset: reveal.DefaultCopiedReset,
		sched:       reveal.SystemScheduler{},
		copyOwners:  make(map[string]string),
		subs:        make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.anim = reveal.New(
		reveal.WithCadence(c.cadence),
		reveal.WithScheduler(c.sched),
		reveal.WithOnChange(func(id string) {
			c.emit(Event{Kind: EventMessage, MessageID: id})
		}),
	)
	c.copies = reveal.NewCopyTracker(c.copiedReset, c.sched, func(key string) {
		c.mu.Lock()
		id := c.copyOwners[key]
		c.mu.Unlock()
		if id != "" {
			c.emit(Event{Kind: EventMessage, MessageID: id})
		}
	})
	if c.themes != nil {
		c.unsubTheme = c.themes.Subscribe(func(theme.Palette) {
			c.emit(Event{Kind: EventTheme})
		})
	}
	return c
}

// Provider returns the backend the controller talks to.
func (c *Controller) Provider() llm.Provider {
	return c.provider
}

// Init creates the model session. A failure is kept as LastError; config
// failures block Send until a later Init or Retry succeeds.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.initializing {
		c.mu.Unlock()
		return nil
	}
	c.initializing = true
	c.mu.Unlock()
	c.emit(Event{Kind: EventReady})

	session, err := c.provider.NewSession(ctx)

	c.mu.Lock()
	c.initializing = false
	if err != nil {
		c.lastErr = err
	} else {
		c.session = session
		if llm.IsConfig(c.lastErr) {
			c.lastErr = nil
		}
	}
	c.mu.Unlock()

	if err != nil {
		slog.Error("chat session init failed", "provider", c.provider.Name(), "error", err)
		c.emit(Event{Kind: EventError})
	} else {
		slog.Info("chat session ready", "provider", c.provider.Name(), "model", c.provider.Model())
	}
	c.emit(Event{Kind: EventReady})
	return err
}

// Retry runs Init again unless a session already exists.
func (c *Controller) Retry(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	return c.Init(ctx)
}

// Ready reports whether a session exists.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Initializing reports whether Init is in progress.
func (c *Controller) Initializing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializing
}

// Busy reports whether a reply is streaming.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Send appends text as a user message and starts streaming the reply into
// a new bot message, whose id is returned. Input is NFC-normalized;
// whitespace-only input is ignored and yields an empty id and no error.
// The reply is not tied to ctx's cancellation.
func (c *Controller) Send(ctx context.Context, text string) (string, error) {
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return "", ErrClosed
	case c.session == nil:
		c.mu.Unlock()
		return "", ErrNotReady
	case c.busy:
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.busy = true
	session := c.session
	c.mu.Unlock()

	user := c.conv.AddUser(text)
	c.anim.Update(user)
	bot := c.conv.AddBot()
	c.anim.Update(bot)
	c.track(user.ID, bot.ID)

	src := session.StreamReply(context.WithoutCancel(ctx), text)

	c.replies.Add(1)
	go c.pump(bot.ID, src)
	return bot.ID, nil
}

func (c *Controller) pump(id string, src stream.Source) {
	defer c.replies.Done()

	_, err := stream.Pump(c.conv, id, src, func() {
		if msg, ok := c.conv.Get(id); ok {
			c.anim.Update(msg)
		}
	})

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.lastErr = err
	}
	c.mu.Unlock()

	if err != nil {
		slog.Error("reply stream failed", "id", id, "error", err)
		c.emit(Event{Kind: EventError})
	}
	// Busy changed; front ends re-enable input on this.
	c.emit(Event{Kind: EventMessage, MessageID: id})
}

// track records displayed ids and drops reveal state of pruned messages.
func (c *Controller) track(ids ...string) {
	c.mu.Lock()
	c.known = append(c.known, ids...)
	if len(c.known) <= c.conv.Len() {
		c.mu.Unlock()
		return
	}
	kept := c.known[:0]
	var dropped []string
	for _, id := range c.known {
		if _, ok := c.conv.Get(id); ok {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	c.known = kept
	c.mu.Unlock()

	for _, id := range dropped {
		c.anim.Remove(id)
	}
}

// Wait blocks until no reply is streaming.
func (c *Controller) Wait() {
	c.replies.Wait()
}

// =============================================================================
// VIEWS
// =============================================================================

// MessageView is a render-ready snapshot of one message.
type MessageView struct {
	ID     string
	Sender model.Sender
	Frame  reveal.Frame
	// Blocks are parsed from the revealed text, with copied flags applied.
	Blocks []render.Block
}

// State returns the render flags of the view.
func (v MessageView) State() render.MessageState {
	return render.MessageState{
		ID:     v.ID,
		Sender: v.Sender,
		Text:   v.Frame.Text,
		Typing: v.Frame.Typing,
		Cursor: v.Frame.Cursor,
	}
}

// HTML renders the view as a message bubble.
func (v MessageView) HTML() string {
	return render.MessageHTML(v.State(), v.Blocks)
}

// Terminal renders the view as ANSI text.
func (v MessageView) Terminal(styles render.TermStyles, width int) string {
	return render.TerminalMessage(v.State(), v.Blocks, styles, width)
}

// Views returns every message in order.
func (c *Controller) Views() []MessageView {
	msgs := c.conv.Messages()
	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, c.view(msg))
	}
	return views
}

// View returns one message.
func (c *Controller) View(id string) (MessageView, bool) {
	msg, ok := c.conv.Get(id)
	if !ok {
		return MessageView{}, false
	}
	return c.view(msg), true
}

func (c *Controller) view(msg model.Message) MessageView {
	frame := c.anim.View(msg.ID)
	blocks := render.Parse(frame.Text, render.ParseOptions{AllowFences: msg.IsBot()})
	for i, b := range blocks {
		if cb, ok := b.(render.CodeBlock); ok {
			cb.Copied = c.copies.Copied(render.BlockKey(msg.ID, i))
			blocks[i] = cb
		}
	}
	return MessageView{ID: msg.ID, Sender: msg.Sender, Frame: frame, Blocks: blocks}
}

// Title returns a short title for the conversation.
func (c *Controller) Title() string {
	return c.conv.Title()
}

// =============================================================================
// COPY
// =============================================================================

// Copy returns the code of a displayed code block and marks it copied.
func (c *Controller) Copy(id string, block int) (string, error) {
	view, ok := c.View(id)
	if !ok {
		return "", ErrNoCodeBlock
	}
	cb, ok := render.CodeBlocks(view.Blocks)[block]
	if !ok {
		return "", ErrNoCodeBlock
	}

	key := render.BlockKey(id, block)
	c.mu.Lock()
	c.copyOwners[key] = id
	c.mu.Unlock()

	c.copies.Mark(key)
	return cb.Code, nil
}

// LastCodeBlock finds the most recent displayed code block.
func (c *Controller) LastCodeBlock() (id string, block int, ok bool) {
	views := c.Views()
	for i := len(views) - 1; i >= 0; i-- {
		for j := len(views[i].Blocks) - 1; j >= 0; j-- {
			if _, isCode := views[i].Blocks[j].(render.CodeBlock); isCode {
				return views[i].ID, j, true
			}
		}
	}
	return "", 0, false
}

// =============================================================================
// ERRORS
// =============================================================================

// LastError returns the error shown in the banner, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ErrorText returns the banner text of err. Stream failures show their
// cause, since the failed message is already annotated.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var se *stream.Error
	if errors.As(err, &se) && se.Cause != nil {
		err = se.Cause
	}
	return err.Error()
}

// DismissError clears the banner error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	had := c.lastErr != nil
	c.lastErr = nil
	c.mu.Unlock()
	if had {
		c.emit(Event{Kind: EventError})
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn for change events. Events arrive from timer and
// stream goroutines; fn must not block. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(Event)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) emit(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close stops all timers and detaches subscribers. A reply that is still
// streaming finishes in the background but is no longer animated.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.unsubTheme != nil {
		c.unsubTheme()
	}
	c.anim.Close()
	c.copies.Close()

	c.subMu.Lock()
	c.subs = make(map[int]func(Event))
	c.subMu.Unlock()
}
