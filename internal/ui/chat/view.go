// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Cipher Bot terminal UI.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	chatctl "github.com/jeranaias/cipherbot/internal/chat"
	"github.com/jeranaias/cipherbot/internal/model"
	"github.com/jeranaias/cipherbot/internal/util"
)

// emptyStateText is shown once the session is ready and nothing was sent.
const emptyStateText = "Ask Cipher Bot anything. Code in replies can be copied with ctrl+y."

// noSessionText is shown when initialization failed.
const noSessionText = "No session. Press ctrl+r to retry."

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat view.
// Layout: header + [error banner] + messages (viewport) + input + status bar.
// The viewport height is set by layout from the measured heights of the
// other parts, so the total always equals m.height.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	parts := []string{m.renderHeader()}
	if banner := m.renderError(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, m.renderBody(), m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// layout sizes the viewport to the space left by the fixed parts.
func (m *Model) layout() {
	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if banner := m.renderError(); banner != "" {
		used += lipgloss.Height(banner)
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-used, 1)
}

// renderBody renders the transcript, or a placeholder while it is empty.
func (m Model) renderBody() string {
	if len(m.ctrl.Views()) > 0 {
		return m.viewport.View()
	}

	var text string
	switch {
	case m.initializing():
		text = m.spinner.View() + " " + m.theme.ThinkingText.Render(chatctl.InitializingText)
	case m.ctrl.Ready():
		text = m.theme.ThinkingText.Render(emptyStateText)
	default:
		text = m.theme.ThinkingText.Render(noSessionText)
	}
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center, text)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Cipher Bot")

	provider := m.ctrl.Provider()
	subtitle := provider.Name()
	if name := provider.Model(); name != "" {
		subtitle += " · " + name
	}
	if conv := m.ctrl.Title(); conv != "" {
		subtitle = conv + " · " + subtitle
	}
	subtitle = util.TruncateWidth(subtitle, max(m.width-lipgloss.Width(title)-8, 0))

	line := title + "  " + m.theme.HeaderSubtitle.Render(subtitle)
	return m.theme.Header.Width(max(m.width-2, 1)).Render(line)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders every message for the viewport.
func (m *Model) renderMessages() string {
	views := m.ctrl.Views()
	if len(views) == 0 {
		return ""
	}

	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, m.renderMessage(v))
	}
	return strings.Join(out, "\n\n")
}

// renderMessage renders one message as a labelled bubble. User messages sit
// on the right, bot messages on the left.
func (m *Model) renderMessage(v chatctl.MessageView) string {
	bubble, label := m.theme.BotBubble, m.theme.BotLabel
	align := lipgloss.Left
	if v.Sender == model.SenderUser {
		bubble, label = m.theme.UserBubble, m.theme.UserLabel
		align = lipgloss.Right
	}

	// Bubble border and padding take 4 columns, the margin another 4.
	textWidth := max(m.width-8, 20)
	body := v.Terminal(m.theme.Markdown, textWidth)
	if lipgloss.Width(body) > textWidth {
		bubble = bubble.Width(textWidth + 2)
	}

	block := lipgloss.JoinVertical(align,
		label.Render(v.Sender.DisplayName()),
		bubble.Render(body),
	)
	return lipgloss.PlaceHorizontal(m.width, align, block)
}

// =============================================================================
// ERROR BANNER
// =============================================================================

// renderError renders the banner for the controller's last error, or "".
func (m Model) renderError() string {
	err := m.ctrl.LastError()
	if err == nil {
		return ""
	}

	msg := m.theme.ErrorIcon.Render("!") + " " +
		m.theme.ErrorMessage.Render(chatctl.ErrorText(err))

	var hints []string
	if !m.ctrl.Ready() {
		hints = append(hints, helpText(m.keys.Retry))
	}
	hints = append(hints, helpText(m.keys.Dismiss))
	tip := m.theme.ErrorTip.Render(strings.Join(hints, " · "))

	return m.theme.ErrorBox.Width(max(m.width-2, 1)).Render(msg + "\n" + tip)
}

// =============================================================================
// INPUT AREA
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width, 1)).Render(m.input.View())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	var prefix, left string
	switch {
	case m.status != "":
		left = m.status
	case m.ctrl.Busy():
		prefix = m.spinner.View() + " "
		left = "replying"
	case m.themes != nil:
		left = "theme: " + displayName(m.theme.Palette)
	}

	helps := m.keys.ShortHelp()
	shortcuts := make([]string, 0, len(helps))
	for _, b := range helps {
		h := b.Help()
		shortcuts = append(shortcuts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	right := strings.Join(shortcuts, "  ")

	// Status bar padding takes 2 columns.
	avail := max(m.width-2, 0)
	if lipgloss.Width(right) >= avail {
		right = ""
	}
	left = prefix + util.TruncateWidth(left, max(avail-lipgloss.Width(right)-lipgloss.Width(prefix)-1, 0))
	gap := max(avail-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HELPERS
// =============================================================================

// helpText formats a binding as "key desc".
func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}
