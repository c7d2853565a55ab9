package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/workana-scraper/models"
)

// categorizeError wraps raw automation errors into typed ScrapeErrors.
// Deadline expiry maps to timeoutCode; anything else is unclassified.
func categorizeError(err error, timeoutCode, step, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	code := models.ErrCodeUnclassified
	if errors.Is(err, context.DeadlineExceeded) {
		code = timeoutCode
	}
	return models.NewScrapeError(code, msg, err).AtStep(step)
}

// isContextErr reports whether err comes from an expired or canceled context.
func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
