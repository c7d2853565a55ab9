// Package browser launches isolated browser sessions for the scraper.
//
// Every Acquire is a cold start: a new browser process with its own
// throw-away profile, so cookies and session tokens never leak between
// scrapes. Release tears everything down and only logs failures.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// Manager is a session manager for one automation driver.
type Manager interface {
	Acquire(ctx context.Context) (dom.Session, error)
	Release(s dom.Session)
	Driver() string
}

// New returns the Manager selected by cfg.Driver.
func New(cfg config.BrowserConfig) (Manager, error) {
	switch cfg.Driver {
	case "", "rod":
		return NewRodManager(cfg), nil
	case "playwright":
		return NewPlaywrightManager(cfg), nil
	default:
		return nil, models.NewScrapeError(
			models.ErrCodeConfiguration,
			fmt.Sprintf("unknown browser driver %q", cfg.Driver),
			nil,
		)
	}
}

// launchArgs are the Chromium switches every session starts with.
func launchArgs(cfg config.BrowserConfig) []string {
	args := []string{"--disable-dev-shm-usage"}
	if cfg.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	return args
}

// timeoutMillis converts ctx's remaining time to the millisecond timeouts
// used by playwright. A ctx without deadline gets fallback.
func timeoutMillis(ctx context.Context, fallback time.Duration) float64 {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < time.Millisecond {
			remaining = time.Millisecond
		}
		return float64(remaining.Milliseconds())
	}
	return float64(fallback.Milliseconds())
}

// errTimeout marks driver-specific timeouts as context.DeadlineExceeded so
// the scraper classifies both drivers the same way.
func errTimeout(what string, err error) error {
	return fmt.Errorf("%s: %w (%v)", what, context.DeadlineExceeded, err)
}

// ctxErr returns ctx's error, wrapped so timeouts stay recognisable.
func ctxErr(ctx context.Context, what string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return err
}
