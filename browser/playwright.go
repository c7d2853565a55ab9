package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// defaultActionTimeout bounds playwright calls made under a ctx without deadline.
const defaultActionTimeout = 30 * time.Second

// PlaywrightManager launches one Chromium per session through playwright-go.
// The driver must already be installed (`playwright install chromium`).
type PlaywrightManager struct {
	cfg config.BrowserConfig
}

// NewPlaywrightManager creates a PlaywrightManager. Nothing is started until Acquire.
func NewPlaywrightManager(cfg config.BrowserConfig) *PlaywrightManager {
	return &PlaywrightManager{cfg: cfg}
}

// Driver implements Manager.
func (m *PlaywrightManager) Driver() string { return "playwright" }

// Acquire starts the playwright driver, launches a browser and opens a page in
// a fresh context.
func (m *PlaywrightManager) Acquire(ctx context.Context) (dom.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	})
	if err != nil {
		return nil, launchFailed("failed to start playwright", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
		Args:     launchArgs(m.cfg),
	}
	if m.cfg.BrowserBin != "" {
		opts.ExecutablePath = playwright.String(m.cfg.BrowserBin)
	}
	if m.cfg.Proxy != "" {
		opts.Proxy = &playwright.Proxy{Server: m.cfg.Proxy}
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, launchFailed("failed to launch browser", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, launchFailed("failed to create browser context", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, launchFailed("failed to open page", err)
	}

	if err := blockResources(page, m.cfg.BlockedResourceTypes); err != nil {
		slog.Warn("resource blocking disabled", "driver", "playwright", "error", err)
	}
	slog.Debug("browser launched", "driver", "playwright")

	return &playwrightSession{pw: pw, browser: browser, bctx: bctx, page: page}, nil
}

// Release tears the session down, logging any failure.
func (m *PlaywrightManager) Release(s dom.Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		slog.Warn("browser teardown failed", "driver", "playwright", "error", err)
		return
	}
	slog.Debug("browser session released", "driver", "playwright")
}

func launchFailed(msg string, err error) error {
	return models.NewScrapeError(models.ErrCodeBrowserLaunch, msg, err).AtStep(models.StepAcquireSession)
}

// blockResources aborts requests whose resource type is configured as blocked.
func blockResources(page playwright.Page, blockedTypes []string) error {
	blocked := make(map[string]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if _, ok := configToProto[name]; ok {
			blocked[strings.ToLower(name)] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	return page.Route("**/*", func(route playwright.Route) {
		if _, ok := blocked[route.Request().ResourceType()]; ok {
			_ = route.Abort("blockedbyclient")
			return
		}
		_ = route.Continue()
	})
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
}

func (s *playwrightSession) Page() dom.Page {
	return &playwrightPage{page: s.page}
}

func (s *playwrightSession) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.bctx.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	page playwright.Page
}

// selector renders loc in playwright's selector syntax.
func selector(loc dom.Locator) string {
	if loc.Text == "" {
		return loc.Selector
	}
	return loc.Selector + ":has-text(" + strconv.Quote(loc.Text) + ")"
}

// playwrightErr maps playwright timeouts onto context.DeadlineExceeded.
func playwrightErr(ctx context.Context, what string, err error) error {
	if err == nil {
		return ctxErr(ctx, what)
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return errTimeout(what, err)
	}
	return err
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, until dom.WaitUntil) error {
	opts := playwright.PageGotoOptions{
		Timeout: playwright.Float(timeoutMillis(ctx, defaultActionTimeout)),
	}
	switch until {
	case dom.NetworkIdle:
		opts.WaitUntil = playwright.WaitUntilStateNetworkidle
	case dom.DOMContentLoaded:
		opts.WaitUntil = playwright.WaitUntilStateDomcontentloaded
	}
	_, err := p.page.Goto(url, opts)
	return playwrightErr(ctx, "navigate "+url, err)
}

func (p *playwrightPage) WaitFor(ctx context.Context, loc dom.Locator) error {
	_, err := p.page.WaitForSelector(selector(loc), playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeoutMillis(ctx, defaultActionTimeout)),
	})
	return playwrightErr(ctx, "wait for "+loc.String(), err)
}

func (p *playwrightPage) Click(ctx context.Context, loc dom.Locator) error {
	err := p.page.Click(selector(loc), playwright.PageClickOptions{
		Timeout: playwright.Float(timeoutMillis(ctx, defaultActionTimeout)),
	})
	return playwrightErr(ctx, "click "+loc.String(), err)
}

func (p *playwrightPage) Type(ctx context.Context, loc dom.Locator, text string) error {
	err := p.page.Fill(selector(loc), text, playwright.PageFillOptions{
		Timeout: playwright.Float(timeoutMillis(ctx, defaultActionTimeout)),
	})
	return playwrightErr(ctx, "fill "+loc.String(), err)
}

func (p *playwrightPage) QueryAll(ctx context.Context, sel string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := p.page.QuerySelectorAll(sel)
	if err != nil {
		return nil, err
	}
	return wrapHandles(handles), nil
}

func wrapHandles(handles []playwright.ElementHandle) []dom.Element {
	out := make([]dom.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &playwrightElement{h: h})
	}
	return out
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e *playwrightElement) Query(sel string) (dom.Element, error) {
	h, err := e.h.QuerySelector(sel)
	if err != nil || h == nil {
		return nil, err
	}
	return &playwrightElement{h: h}, nil
}

func (e *playwrightElement) QueryAll(sel string) ([]dom.Element, error) {
	handles, err := e.h.QuerySelectorAll(sel)
	if err != nil {
		return nil, err
	}
	return wrapHandles(handles), nil
}

func (e *playwrightElement) Text() (string, error) {
	return e.h.InnerText()
}

func (e *playwrightElement) Href() (string, error) {
	v, err := e.h.Evaluate(`e => e.href || ""`)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (e *playwrightElement) Clone() (dom.Element, error) {
	handle, err := e.h.EvaluateHandle(`e => e.cloneNode(true)`)
	if err != nil {
		return nil, err
	}
	el := handle.AsElement()
	if el == nil {
		return nil, errors.New("clone did not produce an element")
	}
	return &playwrightElement{h: el}, nil
}

func (e *playwrightElement) RemoveMatching(sel string) error {
	_, err := e.h.Evaluate(`(e, sel) => e.querySelectorAll(sel).forEach(n => n.remove())`, sel)
	return err
}

func (e *playwrightElement) Click() error {
	_, err := e.h.Evaluate(`e => e.click()`)
	return err
}
