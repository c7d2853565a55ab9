package browser

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
	"github.com/ysmood/gson"
)

// RodManager launches one Chromium per session through go-rod.
type RodManager struct {
	cfg config.BrowserConfig
}

// NewRodManager creates a RodManager. Nothing is launched until Acquire.
func NewRodManager(cfg config.BrowserConfig) *RodManager {
	return &RodManager{cfg: cfg}
}

// Driver implements Manager.
func (m *RodManager) Driver() string { return "rod" }

// Acquire launches a fresh browser with a throw-away user-data-dir and opens
// one page on it.
func (m *RodManager) Acquire(ctx context.Context) (dom.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(m.cfg.NoSandbox)

	if m.cfg.BrowserBin != "" {
		l = l.Bin(m.cfg.BrowserBin)
	}
	if m.cfg.Proxy != "" {
		l = l.Proxy(m.cfg.Proxy)
	}
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-extensions"))

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err).
			AtStep(models.StepAcquireSession)
	}
	slog.Debug("browser launched", "driver", "rod", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err).
			AtStep(models.StepAcquireSession)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to open page", err).
			AtStep(models.StepAcquireSession)
	}

	return &rodSession{
		launcher: l,
		browser:  browser,
		page:     page,
		router:   setupHijack(page, m.cfg.BlockedResourceTypes),
	}, nil
}

// Release tears the session down. Failures are logged, never returned, so they
// cannot mask the error that ended the scrape.
func (m *RodManager) Release(s dom.Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		slog.Warn("browser teardown failed", "driver", "rod", "error", err)
		return
	}
	slog.Debug("browser session released", "driver", "rod")
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
}

func (s *rodSession) Page() dom.Page {
	return &rodPage{page: s.page}
}

// Close stops the hijack router, closes page and browser, kills the process
// and removes the profile directory.
func (s *rodSession) Close() error {
	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	return errors.Join(errs...)
}

type rodPage struct {
	page *rod.Page
}

var lifecycleEvents = map[dom.WaitUntil]proto.PageLifecycleEventName{
	dom.NetworkIdle:      proto.PageLifecycleEventNameNetworkIdle,
	dom.DOMContentLoaded: proto.PageLifecycleEventNameDOMContentLoaded,
}

// Navigate registers the lifecycle waiter BEFORE navigating; registering it
// afterwards could miss the event and wait until ctx expires.
func (r *rodPage) Navigate(ctx context.Context, url string, until dom.WaitUntil) error {
	p := r.page.Context(ctx)

	event, ok := lifecycleEvents[until]
	if !ok {
		event = proto.PageLifecycleEventNameLoad
	}
	wait := p.WaitNavigation(event)

	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctxErr(ctx, "waiting for "+until.String()+" on "+url)
}

func (r *rodPage) find(ctx context.Context, loc dom.Locator) (*rod.Element, error) {
	p := r.page.Context(ctx)
	if loc.Text == "" {
		return p.Element(loc.Selector)
	}
	return p.ElementR(loc.Selector, regexp.QuoteMeta(loc.Text))
}

func (r *rodPage) WaitFor(ctx context.Context, loc dom.Locator) error {
	_, err := r.find(ctx, loc)
	return err
}

func (r *rodPage) Click(ctx context.Context, loc dom.Locator) error {
	el, err := r.find(ctx, loc)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (r *rodPage) Type(ctx context.Context, loc dom.Locator, text string) error {
	el, err := r.find(ctx, loc)
	if err != nil {
		return err
	}
	return el.Input(text)
}

func (r *rodPage) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := r.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

func wrapRodElements(els rod.Elements) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Query(selector string) (dom.Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) QueryAll(selector string) ([]dom.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRodElements(els), nil
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

// Href reads the href property, which the browser has already resolved to an
// absolute URL.
func (e *rodElement) Href() (string, error) {
	v, err := e.el.Property("href")
	if err != nil {
		return "", err
	}
	return hrefValue(v), nil
}

// hrefValue is "" for elements without an href property (undefined or null).
func hrefValue(v gson.JSON) string {
	if v.Nil() {
		return ""
	}
	s, ok := v.Val().(string)
	if !ok {
		return ""
	}
	return s
}

func (e *rodElement) Clone() (dom.Element, error) {
	obj, err := e.el.Evaluate(rod.Eval(`() => this.cloneNode(true)`).ByObject())
	if err != nil {
		return nil, err
	}
	clone, err := e.el.Page().ElementFromObject(obj)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: clone}, nil
}

func (e *rodElement) RemoveMatching(selector string) error {
	els, err := e.el.Elements(selector)
	if err != nil {
		return err
	}
	for _, el := range els {
		if err := el.Remove(); err != nil {
			return err
		}
	}
	return nil
}

// Click fires the element's click handler from script, the way the listing's
// own "show more" links expect, without scrolling or hit-testing.
func (e *rodElement) Click() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}
