// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// themes.go - Theme listing and selection.
//
// Command: themes [subcommand]
// Short:   List and select themes
//
// Subcommands:
//   list           List themes, the current one marked with *
//   set <name>     Select and save a theme
//   show [name]    Print a theme's CSS variables
//
// Examples:
//   cipherbot themes list
//   cipherbot themes list --chroma     Include chroma style palettes
//   cipherbot themes set dark
//   cipherbot themes show chroma:dracula

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cipherbot/internal/theme"
)

func newThemesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List and select themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemesList(cmd, flags, false)
		},
	}

	var withChroma bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemesList(cmd, flags, withChroma)
		},
	}
	list.Flags().BoolVar(&withChroma, "chroma", false, "Also list palettes derived from chroma styles")

	set := &cobra.Command{
		Use:   "set <name>",
		Short: "Select and save a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemesSet(cmd, flags, args[0])
		},
	}

	show := &cobra.Command{
		Use:   "show [name]",
		Short: "Print a theme's CSS variables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runThemesShow(cmd, flags, name)
		},
	}

	cmd.AddCommand(list, set, show)
	return cmd
}

func runThemesList(cmd *cobra.Command, flags *rootFlags, withChroma bool) error {
	a := openApp(flags.cfg, flags.theme, appOptions{})
	defer a.Close()

	out := cmd.OutOrStdout()
	current := a.themes.Current().Name

	names := a.themes.Names()
	if withChroma {
		names = append(names, theme.ChromaNames()...)
	}
	for _, name := range names {
		marker := " "
		if name == current {
			marker = "*"
		}
		display := name
		if p, ok := a.themes.Resolve(name); ok && p.DisplayName != "" {
			display = p.DisplayName
		}
		fmt.Fprintf(out, "%s %-28s %s\n", marker, name, display)
	}
	if !slices.Contains(names, current) {
		fmt.Fprintf(out, "* %s\n", current)
	}
	return nil
}

func runThemesSet(cmd *cobra.Command, flags *rootFlags, name string) error {
	a := openApp(flags.cfg, "", appOptions{})
	defer a.Close()

	if _, ok := a.themes.Resolve(name); !ok {
		return fmt.Errorf("unknown theme %q, run 'cipherbot themes list' to see the available themes", name)
	}
	p, err := a.themes.Set(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s (%s)\n", p.DisplayName, p.Name)
	return nil
}

func runThemesShow(cmd *cobra.Command, flags *rootFlags, name string) error {
	a := openApp(flags.cfg, flags.theme, appOptions{})
	defer a.Close()

	p := a.themes.Current()
	if name != "" {
		var ok bool
		if p, ok = a.themes.Resolve(name); !ok {
			return fmt.Errorf("unknown theme %q", name)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "/* %s */\n%s", p.DisplayName, p.CSS())
	return nil
}
