package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/workana-scraper/api"
	"github.com/use-agent/workana-scraper/webhook"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP service.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// ── 1. Configuration, logging, scraper ──────────────────────
		cfg, sc, sessions, err := setup(os.Stdout)
		if err != nil {
			return err
		}
		slog.Info("workana-scraper starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode(),
			"driver", sessions.Driver(),
		)

		// ── 2. Webhook (optional) ───────────────────────────────────
		notifier := webhook.New(cfg.Webhook)
		if notifier != nil {
			slog.Info("webhook delivery enabled")
		}

		// ── 3. Setup router ─────────────────────────────────────────
		router := api.NewRouter(sc, notifier, cfg, sessions.Driver())

		// ── 4. Start HTTP server ────────────────────────────────────
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		serveErr := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		// ── 5. Graceful shutdown ────────────────────────────────────
		select {
		case err := <-serveErr:
			return fmt.Errorf("HTTP server error: %w", err)
		case <-cmd.Context().Done():
			slog.Info("shutdown signal received")
		}

		// Give in-flight requests 5 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		// Detached scrapes outlive Shutdown; their sessions and webhook
		// deliveries must finish before the process exits.
		slog.Info("waiting for in-flight scrapes")
		sc.Wait()
		notifier.Wait()

		slog.Info("workana-scraper stopped")
		return nil
	},
}
