// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Browser UI server command.
//
// Command: serve
// Short:   Serve the browser UI
//
// Examples:
//   cipherbot serve                         Listen on server.addr (127.0.0.1:8787)
//   cipherbot serve --addr 0.0.0.0:8080     Listen on all interfaces
//
// The session is created in the background; the page shows the
// initializing state until it is ready. SIGINT or SIGTERM shuts the server
// down gracefully.

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cipherbot/internal/server"
)

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = flags.cfg.Server.Addr
			}
			return runServe(cmd, flags, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	return cmd
}

func runServe(cmd *cobra.Command, flags *rootFlags, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := openApp(flags.cfg, flags.theme, appOptions{watchThemes: true})
	defer a.Close()

	ctrl, err := a.newController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	// rate_limit = 0 in the config means unlimited.
	rateLimit := flags.cfg.Server.RateLimit
	if rateLimit == 0 {
		rateLimit = -1
	}

	srv := server.New(ctrl, a.themes, server.Config{
		Addr:      ln.Addr().String(),
		RateLimit: rateLimit,
		RateBurst: flags.cfg.Server.RateBurst,
		Version:   Version,
	})

	go func() {
		if err := ctrl.Init(ctx); err != nil {
			slog.Warn("session not ready, the page offers a retry", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Cipher Bot is running at http://%s\n", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
