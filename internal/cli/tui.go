// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The default command: the full-screen terminal UI.

package cli

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	chatui "github.com/jeranaias/cipherbot/internal/ui/chat"
)

// runTUI runs the Bubble Tea chat view until the user quits.
func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	if !IsTTY() || !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("the terminal UI needs an interactive terminal; use 'cipherbot ask' or 'cipherbot chat' instead")
	}

	a := openApp(flags.cfg, flags.theme, appOptions{watchThemes: true})
	defer a.Close()

	ctrl, err := a.newController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	m := chatui.New(ctrl, a.themes)
	defer m.Close()

	slog.Info("starting terminal UI", "provider", flags.cfg.Provider)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
