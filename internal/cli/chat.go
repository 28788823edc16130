// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode interactive chat with input history.
//
// Command: chat
// Short:   Line-mode chat
//
// Examples:
//   cipherbot chat                     Start a chat session
//   cipherbot chat --provider ollama   Chat with a local model
//
// Slash commands:
//   /help          Show commands
//   /new           Start a new conversation
//   /theme [name]  Show or switch the theme
//   /copy          Copy the last code block of the last reply
//   /models        List local models (ollama only)
//   /quit          Exit
//
// Ctrl+C cancels a reply that is being streamed, and exits at the prompt.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/cipherbot/internal/config"
	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/ollama"
	"github.com/jeranaias/cipherbot/internal/render"
	"github.com/jeranaias/cipherbot/internal/theme"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat",
		Long: `Chat with Cipher Bot one line at a time. Input history is kept in
~/.cipherbot/chat_history. Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print reply text without rendering")
	return cmd
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		if _, err := c.line.ReadHistory(f); err != nil {
			slog.Debug("failed to read chat history", "error", err)
		}
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-blank input is added
// to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the input history, readable by the owner only.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		slog.Debug("failed to save chat history", "error", err)
		return
	}
	defer f.Close()
	if _, err := c.line.WriteHistory(f); err != nil {
		slog.Debug("failed to write chat history", "error", err)
	}
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatREPL is the state of one chat command run.
type chatREPL struct {
	provider  llm.Provider
	session   llm.Session
	out       *lineRenderer
	themes    *theme.Manager
	clipboard func(string) error

	// lastReply is the text of the most recent reply, for /copy.
	lastReply string
}

func runChat(cmd *cobra.Command, flags *rootFlags, raw bool) error {
	if !IsTTY() {
		return errors.New("chat needs an interactive terminal, use 'cipherbot ask' for piped input")
	}

	a := openApp(flags.cfg, flags.theme, appOptions{})
	defer a.Close()

	provider, err := newProvider(flags.cfg)
	if err != nil {
		return err
	}

	repl := &chatREPL{
		provider:  provider,
		out:       newLineRenderer(cmd.OutOrStdout(), a.themes.Current(), raw),
		themes:    a.themes,
		clipboard: clipboard.WriteAll,
	}
	if err := repl.newSession(cmd.Context()); err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	repl.printWelcome()
	for {
		line, err := input.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(repl.out.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			keepGoing, err := repl.handleSlashCommand(cmd.Context(), line)
			if err != nil {
				repl.out.printError(err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		repl.send(cmd.Context(), line)
	}
}

// send streams one reply. Ctrl+C cancels the reply without leaving chat.
func (r *chatREPL) send(parent context.Context, text string) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	reply, err := r.out.streamReply(ctx, r.session, text)
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		r.out.printInfo("[cancelled]")
	case err != nil:
		r.out.printError(err)
	}
	if reply != "" {
		r.lastReply = reply
	}
}

// newSession replaces the conversation with a fresh one.
func (r *chatREPL) newSession(ctx context.Context) error {
	session, err := r.provider.NewSession(ctx)
	if err != nil {
		return err
	}
	r.session = session
	r.lastReply = ""
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a slash command. It returns false when chat
// should exit.
func (r *chatREPL) handleSlashCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
	case "/quit", "/q", "/exit":
		return false, nil
	case "/new", "/clear":
		if err := r.newSession(ctx); err != nil {
			return true, err
		}
		r.out.printInfo("[new conversation]")
	case "/theme":
		return true, r.themeCommand(args)
	case "/copy":
		return true, r.copyCommand()
	case "/models":
		return true, r.modelsCommand(ctx)
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

func (r *chatREPL) themeCommand(args []string) error {
	if len(args) == 0 {
		current := r.themes.Current()
		r.out.printInfo("Theme: %s (%s)", current.DisplayName, current.Name)
		r.out.printInfo("Available: %s", strings.Join(r.themes.Names(), ", "))
		return nil
	}
	if _, ok := r.themes.Resolve(args[0]); !ok {
		return fmt.Errorf("unknown theme %q", args[0])
	}
	p, err := r.themes.Set(args[0])
	r.out.setPalette(p)
	r.out.printInfo("Theme: %s", p.DisplayName)
	return err
}

func (r *chatREPL) copyCommand() error {
	code, ok := lastCodeBlock(r.lastReply)
	if !ok {
		return errors.New("no code block to copy")
	}
	if err := r.clipboard(code); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	r.out.printInfo("[copied %d %s]", countLines(code), plural(countLines(code), "line", "lines"))
	return nil
}

func (r *chatREPL) modelsCommand(ctx context.Context) error {
	p, ok := r.provider.(*ollama.Provider)
	if !ok {
		return fmt.Errorf("model listing is only available for ollama (current provider: %s)", r.provider.Name())
	}
	models, err := p.Client().ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		r.out.printInfo("No local models. Pull one with 'ollama pull %s'.", p.Model())
		return nil
	}
	for _, m := range models {
		marker := " "
		if m.Name == p.Model() || strings.TrimSuffix(m.Name, ":latest") == p.Model() {
			marker = "*"
		}
		r.out.printInfo("%s %s", marker, m.Name)
	}
	return nil
}

// lastCodeBlock returns the code of the last fenced block in reply.
func lastCodeBlock(reply string) (string, bool) {
	blocks := render.Parse(reply, render.ParseOptions{AllowFences: true})
	for i := len(blocks) - 1; i >= 0; i-- {
		if cb, ok := blocks[i].(render.CodeBlock); ok {
			return cb.Code, true
		}
	}
	return "", false
}

func countLines(s string) int {
	return strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *chatREPL) printWelcome() {
	r.out.printInfo("Cipher Bot · %s · %s", r.provider.Name(), r.provider.Model())
	r.out.printInfo("Type your message and press Enter. Commands: /help, /quit")
	fmt.Fprintln(r.out.out)
}

func (r *chatREPL) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new conversation"},
		{"/theme [name]", "Show or switch the theme"},
		{"/copy", "Copy the last code block of the last reply"},
		{"/models", "List local models (ollama only)"},
		{"/quit, /q", "Exit chat"},
	}
	fmt.Fprintln(r.out.out)
	for _, c := range commands {
		fmt.Fprintf(r.out.out, "  %-15s %s\n", c.cmd, c.desc)
	}
	fmt.Fprintln(r.out.out)
	r.out.printInfo("Ctrl+C cancels a reply, Ctrl+D exits")
}
