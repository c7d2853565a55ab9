// Package webhook delivers scrape results to a downstream HTTP endpoint.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/models"
)

// Event types.
const (
	EventCompleted = "scrape.completed"
	EventFailed    = "scrape.failed"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Workana-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string               `json:"type"`
	ScrapeID  string               `json:"scrape_id"`
	Timestamp int64                `json:"timestamp"`
	Data      *models.ScrapeResult `json:"data"`
}

// EventFor wraps a finished scrape.
func EventFor(result *models.ScrapeResult) *Event {
	typ := EventCompleted
	if !result.OK() {
		typ = EventFailed
	}
	return &Event{
		Type:      typ,
		ScrapeID:  result.ID,
		Timestamp: time.Now().Unix(),
		Data:      result,
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notifier posts every scrape result to one URL. A nil *Notifier is valid and
// does nothing.
type Notifier struct {
	url    string
	secret string
	client *resty.Client

	// delays before each attempt; the first is normally zero.
	delays []time.Duration
	wg     sync.WaitGroup
}

// New returns a Notifier for cfg, or nil if no URL is configured.
func New(cfg config.WebhookConfig) *Notifier {
	if cfg.URL == "" {
		return nil
	}
	return &Notifier{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: resty.New().
			SetTimeout(10*time.Second).
			SetHeader("User-Agent", "Workana-Scraper-Webhook/1.0"),
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Deliver sends one event synchronously.
// The request body is signed with HMAC-SHA256 if a secret is configured.
func (n *Notifier) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if n.secret != "" {
		req.SetHeader(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := req.Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// Notify delivers result in the background with retries at 1s, 5s and 30s.
// Failures are logged only.
func (n *Notifier) Notify(result *models.ScrapeResult) {
	if n == nil || result == nil {
		return
	}
	event := EventFor(result)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"event", event.Type,
					"scrape_id", event.ScrapeID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"event", event.Type,
				"scrape_id", event.ScrapeID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"event", event.Type,
			"scrape_id", event.ScrapeID,
		)
	}()
}

// Wait blocks until every pending delivery has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
