package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/workana-scraper/models"
)

// ErrorCodeHeader carries the error code of an error envelope.
const ErrorCodeHeader = "X-Scrape-Error-Code"

// Runner performs one scrape invocation. Run never returns nil.
type Runner interface {
	Run(ctx context.Context) *models.ScrapeResult
}

// Notifier receives every finished result.
type Notifier interface {
	Notify(result *models.ScrapeResult)
}

// Scrape returns a handler for GET /scrape and GET /api/scrape.
//
// Orchestration flow:
//  1. Detach from the client: a disconnect must not abort a login half-way.
//  2. Runner.Run → envelope (login, listing, extraction, teardown).
//  3. Hand the result to the notifier (async, never affects the response).
//  4. Map the envelope to a status code and respond.
func Scrape(runner Runner, notifier Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Detach ───────────────────────────────────────────────
		ctx := context.WithoutCancel(c.Request.Context())

		// ── 2. Scrape ───────────────────────────────────────────────
		result := runner.Run(ctx)

		// ── 3. Notify ───────────────────────────────────────────────
		if notifier != nil {
			notifier.Notify(result)
		}

		// ── 4. Respond ──────────────────────────────────────────────
		respond(c, result)
	}
}

// respond writes the envelope with the status code matching its outcome.
func respond(c *gin.Context, result *models.ScrapeResult) {
	if result.OK() {
		c.JSON(http.StatusOK, result)
		return
	}
	code := models.CodeOf(result.Err)
	c.Header(ErrorCodeHeader, code)
	c.JSON(mapErrorToStatus(code), result)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeBusy, models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

// Abort writes an error envelope for err and stops the handler chain.
func Abort(c *gin.Context, err *models.ScrapeError) {
	c.Header(ErrorCodeHeader, err.Code)
	c.AbortWithStatusJSON(mapErrorToStatus(err.Code), models.Failure(err))
}
