// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Cipher Bot terminal UI.

The chat package implements a Bubble Tea front end for one conversation run
by a chat.Controller. The controller owns every piece of conversation state:
messages, the reveal animation, copied markers and the last error. This
package only renders that state and turns key presses into controller calls.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model:
  - Viewport with the rendered transcript
  - Text input for the next message
  - Spinner while the session initializes or a reply streams
  - Status line for transient feedback ("Copied code block (3 lines)")

## View Rendering (view.go)

Layout, top to bottom: header with provider and model, error banner (only
while the controller has an error), transcript, input, status bar with key
hints. Messages are rendered with chat.MessageView.Terminal using the
markdown styles of the active palette.

## Streaming (streaming.go)

Controller events arrive on timer and stream goroutines. EventBuffer
collects them without blocking and delivers one refreshMsg per frame, at
most 30 per second, to the Bubble Tea loop.

## Viewport Optimizer (viewport_optimizer.go)

Skips viewport updates whose rendered content is unchanged.

# Key Bindings

	enter    send the input
	ctrl+t   switch to the next theme
	ctrl+y   copy the most recent code block to the clipboard
	ctrl+r   retry session initialization
	esc      dismiss the error banner
	↑ ↓      scroll one line
	pgup     page up
	pgdn     page down
	ctrl+c   quit

# Usage

	ctrl := chat.New(provider, chat.WithThemes(themes))
	m := chatui.New(ctrl, themes)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
