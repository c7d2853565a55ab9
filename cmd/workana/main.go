// Command workana scrapes the authenticated Workana job listing.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/workana-scraper/browser"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/scraper"
)

var rootCmd = &cobra.Command{
	Use:           "workana",
	Short:         "workana scrapes the Workana job listing behind a login.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads and validates configuration, configures logging to logOut and
// builds the scraper. Missing credentials fail here, before any browser is
// launched.
func setup(logOut io.Writer) (*config.Config, *scraper.Scraper, browser.Manager, error) {
	cfg := config.Load()
	initLogger(cfg.Log, logOut)

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	sessions, err := browser.New(cfg.Browser)
	if err != nil {
		return nil, nil, nil, err
	}

	sc, err := scraper.New(sessions, cfg.Workana,
		scraper.WithSite(scraper.Workana.WithListing(cfg.Listing)),
		scraper.WithTiming(scraper.TimingFrom(cfg.Scraper)),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	slog.Debug("scraper configured",
		"driver", sessions.Driver(),
		"headless", cfg.Browser.Headless,
		"credentials", cfg.Workana,
	)
	return cfg, sc, sessions, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
