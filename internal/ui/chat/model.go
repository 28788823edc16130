// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Cipher Bot terminal UI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/jeranaias/cipherbot/internal/chat"
	"github.com/jeranaias/cipherbot/internal/theme"
	"github.com/jeranaias/cipherbot/internal/ui/styles"
)

// maxInputLength matches the limit of the browser UI.
const maxInputLength = 16000

// sessionMsg reports the end of an Init or Retry.
type sessionMsg struct {
	err error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	lines int
	err   error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. All conversation state
// lives in the controller; the model only renders it.
type Model struct {
	ctrl   *chatctl.Controller
	themes *theme.Manager

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     KeyMap

	events      *EventBuffer
	optimizer   *ViewportOptimizer
	unsubscribe func()

	attempted bool
	spinning  bool
	follow    bool
	status    string

	clipboard func(string) error
}

// New creates the chat view for ctrl. themes may be nil, which disables
// theme switching.
func New(ctrl *chatctl.Controller, themes *theme.Manager) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message Cipher Bot..."
	ti.CharLimit = maxInputLength
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{}

	sp := spinner.New()
	sp.Spinner = styles.LineSpinner.Bubbles()

	palette := theme.Applied()
	if themes != nil {
		palette = themes.Current()
	}

	events := NewEventBuffer(defaultMaxFPS)
	m := Model{
		ctrl:        ctrl,
		themes:      themes,
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		keys:        DefaultKeyMap(),
		events:      events,
		optimizer:   NewViewportOptimizer(),
		unsubscribe: ctrl.Subscribe(events.Push),
		attempted:   ctrl.Ready() || ctrl.LastError() != nil,
		spinning:    !ctrl.Ready(),
		follow:      true,
		clipboard:   clipboard.WriteAll,
	}
	m.setTheme(palette)
	return m
}

// Close detaches the model from the controller.
func (m Model) Close() {
	m.unsubscribe()
	m.events.Close()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for controller events and creates the session if
// the caller has not.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.events.Listen()}
	if m.spinning {
		cmds = append(cmds, m.spinner.Tick)
	}
	if !m.ctrl.Ready() {
		cmds = append(cmds, m.initSession)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		return m.handleRefresh(msg)

	case sessionMsg:
		m.attempted = true
		if msg.err == nil {
			m.status = ""
		}
		m.refresh()
		return m, m.ensureSpinner()

	case copiedMsg:
		if msg.err != nil {
			slog.Warn("clipboard write failed", "error", msg.err)
			m.status = "Copy failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Copied code block (%d %s)", msg.lines, plural(msg.lines, "line"))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.animating() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.follow = m.viewport.AtBottom()
		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	const promptLen = 2 // "> "
	m.input.Width = max(m.width-4-promptLen, 10)
	m.viewport.Width = max(m.width, 1)

	m.optimizer.ForceUpdate()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.NextTheme):
		return m.nextTheme()

	case key.Matches(msg, m.keys.CopyCode):
		return m.copyCode()

	case key.Matches(msg, m.keys.Retry):
		return m, m.retry()

	case key.Matches(msg, m.keys.Dismiss):
		m.status = ""
		m.ctrl.DismissError()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.follow = m.viewport.AtBottom()
	return m, nil
}

func (m Model) handleRefresh(msg refreshMsg) (tea.Model, tea.Cmd) {
	if msg.theme {
		m.setTheme(theme.Applied())
	}
	m.refresh()
	return m, tea.Batch(m.events.Listen(), m.ensureSpinner())
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) send() (tea.Model, tea.Cmd) {
	id, err := m.ctrl.Send(context.Background(), m.input.Value())
	switch {
	case errors.Is(err, chatctl.ErrBusy):
		m.status = "Cipher Bot is still replying"
	case errors.Is(err, chatctl.ErrNotReady):
		if m.ctrl.Initializing() {
			m.status = chatctl.InitializingText
		} else {
			m.status = "No session, press ctrl+r to retry"
		}
	case err != nil:
		m.status = chatctl.ErrorText(err)
	default:
		m.input.Reset()
		if id != "" {
			m.status = ""
			m.follow = true
		}
	}
	m.refresh()
	return m, m.ensureSpinner()
}

func (m Model) nextTheme() (tea.Model, tea.Cmd) {
	if m.themes == nil {
		m.status = "Theme switching is not available"
		return m, nil
	}
	p, err := m.themes.Next()
	if err != nil {
		slog.Warn("failed to save theme", "theme", p.Name, "error", err)
	}
	m.setTheme(p)
	m.status = "Theme: " + displayName(p)
	m.refresh()
	return m, nil
}

func (m Model) copyCode() (tea.Model, tea.Cmd) {
	id, block, ok := m.ctrl.LastCodeBlock()
	if !ok {
		m.status = "No code block to copy"
		return m, nil
	}
	code, err := m.ctrl.Copy(id, block)
	if err != nil {
		m.status = chatctl.ErrorText(err)
		return m, nil
	}
	m.refresh()

	write := m.clipboard
	lines := strings.Count(code, "\n") + 1
	return m, func() tea.Msg {
		return copiedMsg{lines: lines, err: write(code)}
	}
}

func (m Model) retry() tea.Cmd {
	if m.ctrl.Ready() || m.ctrl.Initializing() {
		return nil
	}
	return m.initSession
}

func (m Model) initSession() tea.Msg {
	return sessionMsg{err: m.ctrl.Retry(context.Background())}
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// animating reports whether the spinner is visible.
func (m Model) animating() bool {
	return m.initializing() || m.ctrl.Busy()
}

// initializing is true while a session is being created, and before the
// first attempt has finished.
func (m Model) initializing() bool {
	if m.ctrl.Initializing() {
		return true
	}
	return !m.attempted && !m.ctrl.Ready() && m.ctrl.LastError() == nil
}

// ensureSpinner starts the spinner when it should be visible and is not
// ticking yet.
func (m *Model) ensureSpinner() tea.Cmd {
	if m.spinning || !m.animating() {
		return nil
	}
	m.spinning = true
	if m.initializing() {
		m.spinner.Spinner = styles.LineSpinner.Bubbles()
	} else {
		m.spinner.Spinner = styles.DotsSpinner.Bubbles()
	}
	return m.spinner.Tick
}

// setTheme rebuilds the styles for p.
func (m *Model) setTheme(p theme.Palette) {
	m.theme = styles.NewTheme(p)
	m.theme.SetSize(m.width, m.height)
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.TextStyle = m.theme.InputText
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner
	m.optimizer.ForceUpdate()
}

// refresh lays out the screen and re-renders the transcript.
func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.layout()

	content := m.renderMessages()
	if !m.optimizer.ShouldUpdate(content) {
		return
	}
	m.viewport.SetContent(content)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func displayName(p theme.Palette) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
