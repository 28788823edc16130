// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and global flags for the cipherbot CLI.
//
// Command: cipherbot
// Short:   Cipher Bot chat client
//
// Examples:
//   cipherbot                         Start the terminal UI
//   cipherbot serve                   Serve the browser UI on 127.0.0.1:8787
//   cipherbot chat                    Line-mode chat with history
//   cipherbot ask "What is a monad?"  One question, reply on stdout
//   cipherbot themes list             List palettes
//
// Global flags:
//   --config PATH       Config file (default: ~/.cipherbot/config.toml)
//   --provider NAME     gemini or ollama (overrides config)
//   --theme NAME        Select and save a palette
//   -d, --debug         Debug logging

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cipherbot/internal/config"
)

// Version information, set from main at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootFlags holds the global flags and what PersistentPreRunE derived from
// them.
type rootFlags struct {
	configPath string
	provider   string
	theme      string
	debugMode  bool

	cfg     *config.Config
	logFile io.Closer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "cipherbot",
		Short: "Cipher Bot - a streaming chat client",
		Long: `Cipher Bot is a chat client that streams replies with a typewriter
reveal, renders markdown and highlighted code, and runs in the terminal or
the browser.`,
		Example: `  cipherbot
  cipherbot serve --addr 127.0.0.1:9000
  cipherbot ask "Explain goroutines"`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			flags.closeLog()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default: ~/.cipherbot/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.provider, "provider", "", "Chat provider: gemini or ollama")
	cmd.PersistentFlags().StringVar(&flags.theme, "theme", "", "Select and save a theme")
	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newChatCmd(flags))
	cmd.AddCommand(newAskCmd(flags))
	cmd.AddCommand(newThemesCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		var cfgErr config.ValidateErrors
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(stderr, "Run 'cipherbot config path' to find the config file.")
		}
		return 1
	}
	return 0
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads the config, applies the global flags and installs the logger.
func (f *rootFlags) setup(cmd *cobra.Command) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	if f.provider != "" {
		cfg.Provider = strings.ToLower(f.provider)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if f.debugMode {
		cfg.Log.Level = "debug"
	}
	config.SetGlobal(cfg)
	f.cfg = cfg

	// The terminal UI owns the screen, so its logs go to a file.
	toFile := !cmd.HasParent() || cfg.Log.File != ""
	return f.setupLogging(cmd.ErrOrStderr(), toFile)
}

func (f *rootFlags) loadConfig() (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFromPath(f.configPath)
	}
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		slog.Warn("config file could not be read, using defaults", "error", err)
	}
	return cfg, nil
}

// setupLogging installs a text handler on stderr, or on the log file when
// toFile is set. A log file that cannot be opened falls back to stderr.
func (f *rootFlags) setupLogging(stderr io.Writer, toFile bool) error {
	opts := &slog.HandlerOptions{Level: f.cfg.Log.SlogLevel()}

	var w io.Writer = stderr
	if toFile {
		path, err := logFilePath(f.cfg)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(path), 0o700)
		}
		var file *os.File
		if err == nil {
			file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		}
		if err != nil {
			fmt.Fprintf(stderr, "warning: cannot open log file, logging to stderr: %v\n", err)
		} else {
			w = file
			f.logFile = file
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
	return nil
}

func (f *rootFlags) closeLog() {
	if f.logFile == nil {
		return
	}
	if err := f.logFile.Close(); err != nil {
		slog.Error("failed to close log file", "error", err)
	}
	f.logFile = nil
}

// logFilePath returns the configured log file, or cipherbot.log in the
// config directory.
func logFilePath(cfg *config.Config) (string, error) {
	if cfg.Log.File != "" {
		return cfg.Log.File, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cipherbot.log"), nil
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config loading and logging setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cipherbot %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
