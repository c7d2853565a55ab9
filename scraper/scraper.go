package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// SessionManager owns the lifecycle of isolated browser sessions.
// Release must never fail; teardown problems are logged by the implementation.
type SessionManager interface {
	Acquire(ctx context.Context) (dom.Session, error)
	Release(s dom.Session)
}

// ErrBusy is returned when a scrape is requested while another is running.
var ErrBusy = models.NewScrapeError(models.ErrCodeBusy, "a scrape is already in progress", nil)

// Scraper runs authenticated scrapes of the job listing.
// It is safe for concurrent use; at most one scrape runs at a time.
type Scraper struct {
	sessions SessionManager
	creds    config.Credentials
	site     Site
	timing   Timing
	gate     chan struct{}
	inflight sync.WaitGroup

	// observeLogin is handed to every Authenticator. Tests only.
	observeLogin func(LoginState)
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithSite overrides the marketplace protocol.
func WithSite(site Site) Option {
	return func(s *Scraper) { s.site = site }
}

// WithTiming overrides the waits and settle delays.
func WithTiming(t Timing) Option {
	return func(s *Scraper) { s.timing = t }
}

// New validates creds and the site protocol. A configuration error here means
// no session is ever acquired.
func New(sessions SessionManager, creds config.Credentials, opts ...Option) (*Scraper, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	s := &Scraper{
		sessions: sessions,
		creds:    creds,
		site:     Workana,
		timing:   DefaultTiming,
		gate:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.site.Validate(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConfiguration, "invalid site protocol", err).
			AtStep(models.StepConfig)
	}
	return s, nil
}

// Run performs one scrape and assembles the envelope. It never returns nil.
func (s *Scraper) Run(ctx context.Context) *models.ScrapeResult {
	id := uuid.NewString()
	start := time.Now()
	log := slog.With("scrape_id", id)
	log.Info("scrape started")

	records, err := s.Scrape(ctx)
	result := models.Assemble(records, err)
	result.ID = id

	if err != nil {
		log.Error("scrape failed",
			"code", models.CodeOf(err),
			"step", models.StepOf(err),
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
			"error", err,
		)
	} else {
		log.Info("scrape completed",
			"projects", result.TotalProjects,
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
		)
	}
	return result
}

// Wait blocks until every running scrape has released its session.
// Callers must stop starting new scrapes first.
func (s *Scraper) Wait() {
	s.inflight.Wait()
}

// Scrape runs Authenticator → Navigator → Extractor on a fresh session.
//
// Lifecycle:
//
//  1. Credential check  – fail before any browser starts
//  2. Single-flight     – reject if another scrape holds the gate
//  3. Deadline          – one overall bound above the per-step waits
//  4. Acquire session   – cold start, nothing shared with previous calls
//  5. DEFER: release    – runs on every path, exactly once
//  6. Login             – state machine, timeout is the failure signal
//  7. Listing           – navigate + wait for the first project item
//  8. Extract           – expand, settle, read
func (s *Scraper) Scrape(ctx context.Context) ([]models.ProjectRecord, error) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	// ── 1. Credential check ───────────────────────────────────────────
	if err := s.creds.Validate(); err != nil {
		return nil, err
	}

	// ── 2. Single-flight gate ─────────────────────────────────────────
	select {
	case s.gate <- struct{}{}:
		defer func() { <-s.gate }()
	default:
		return nil, ErrBusy
	}

	// ── 3. Deadline ───────────────────────────────────────────────────
	if s.timing.Scrape > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timing.Scrape)
		defer cancel()
	}

	// ── 4. Acquire session ────────────────────────────────────────────
	session, err := s.sessions.Acquire(ctx)
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to start browser session", err).
			AtStep(models.StepAcquireSession)
	}

	// ── 5. CRITICAL DEFER: teardown on every exit path ────────────────
	defer s.sessions.Release(session)

	page := session.Page()

	// ── 6. Login ──────────────────────────────────────────────────────
	auth := NewAuthenticator(s.site, s.timing, s.creds)
	auth.observe = s.observeLogin
	if err := auth.Login(ctx, page); err != nil {
		return nil, err
	}

	// ── 7. Listing ────────────────────────────────────────────────────
	if err := NewNavigator(s.site, s.timing).GoToListing(ctx, page); err != nil {
		return nil, err
	}

	// ── 8. Extract ────────────────────────────────────────────────────
	records, err := NewExtractor(s.site, s.timing).Extract(ctx, page)
	if err != nil {
		return nil, err
	}
	return records, nil
}
