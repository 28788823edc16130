// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   cipherbot ask "What is the capital of France?"
//   git diff | cipherbot ask              Question read from stdin
//   cipherbot ask --raw "Write a haiku" > haiku.md
//
// Flags:
//   --raw    Print the reply text without rendering

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// maxStdinPrompt bounds a question read from stdin.
const maxStdinPrompt = 1 << 20

func newAskCmd(flags *rootFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question",
		Example: `  cipherbot ask "What is the capital of France?"
  git diff | cipherbot ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := askQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAsk(cmd, flags, question, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply text without rendering")
	return cmd
}

// askQuestion joins args, or reads the question from stdin when there are
// none and stdin is not a terminal.
func askQuestion(stdin io.Reader, args []string) (string, error) {
	question := strings.Join(args, " ")
	if question == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinPrompt))
		if err != nil {
			return "", fmt.Errorf("failed to read question from stdin: %w", err)
		}
		question = string(data)
	}
	if strings.TrimSpace(question) == "" {
		return "", errors.New("no question given")
	}
	return question, nil
}

func runAsk(cmd *cobra.Command, flags *rootFlags, question string, raw bool) error {
	a := openApp(flags.cfg, flags.theme, appOptions{})
	defer a.Close()

	provider, err := newProvider(flags.cfg)
	if err != nil {
		return err
	}
	session, err := provider.NewSession(cmd.Context())
	if err != nil {
		return err
	}

	out := newLineRenderer(cmd.OutOrStdout(), a.themes.Current(), raw)
	_, err = out.streamReply(cmd.Context(), session, question)
	return err
}
