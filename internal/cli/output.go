// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Reply rendering for the line-mode commands (ask, chat).
//
// On a terminal the reply is collected behind a typing indicator and then
// printed as rendered markdown with highlighted code. Piped output gets the
// raw reply text as it streams.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/render"
	"github.com/jeranaias/cipherbot/internal/stream"
	"github.com/jeranaias/cipherbot/internal/theme"
	"github.com/jeranaias/cipherbot/internal/ui/styles"
)

// lineRenderer writes replies to one output.
type lineRenderer struct {
	out   io.Writer
	term  *termenv.Output
	color bool
	width int
	theme *styles.Theme
}

// newLineRenderer creates a renderer for w using palette p. raw disables
// rendering even on a terminal.
func newLineRenderer(w io.Writer, p theme.Palette, raw bool) *lineRenderer {
	r := &lineRenderer{
		out:   w,
		term:  termenv.NewOutput(w),
		color: !raw && ColorsEnabled(w),
		width: terminalWidth(w),
	}
	if r.color {
		lipgloss.SetColorProfile(colorProfile(w))
	}
	r.setPalette(p)
	return r
}

// setPalette switches the styles used for later replies.
func (r *lineRenderer) setPalette(p theme.Palette) {
	r.theme = styles.NewTheme(p)
}

// streamReply sends text on session and writes the reply. It returns the
// reply text, which is partial when the stream failed.
func (r *lineRenderer) streamReply(ctx context.Context, session llm.Session, text string) (string, error) {
	src := session.StreamReply(ctx, norm.NFC.String(text))

	if !r.color {
		written := 0
		reply, err := stream.Consume(src, func(full string) {
			fmt.Fprint(r.out, full[written:])
			written = len(full)
		}, nil)
		fmt.Fprintln(r.out)
		return reply, err
	}

	fmt.Fprint(r.out, r.theme.Markdown.Typing.Render(render.TypingPlaceholder))
	reply, err := stream.Consume(src, nil, nil)
	r.term.ClearLine()
	fmt.Fprint(r.out, "\r")

	if reply != "" {
		fmt.Fprintln(r.out, r.renderReply(reply))
	}
	return reply, err
}

// renderReply renders bot markdown for the terminal.
func (r *lineRenderer) renderReply(reply string) string {
	blocks := render.Parse(reply, render.ParseOptions{AllowFences: true})
	return render.Terminal(blocks, r.theme.Markdown, r.width)
}

// printError writes err in the palette's error color.
func (r *lineRenderer) printError(err error) {
	msg := "Error: " + err.Error()
	if r.color {
		msg = r.theme.ErrorIcon.Render("!") + " " + r.theme.ErrorMessage.Render(msg)
	}
	fmt.Fprintln(r.out, msg)
}

// printInfo writes a secondary line.
func (r *lineRenderer) printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.color {
		msg = r.theme.ThinkingText.Render(msg)
	}
	fmt.Fprintln(r.out, msg)
}
