package scraper

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
)

var testCreds = config.Credentials{Email: "me@example.com", Password: "correct-horse"}

// testTiming keeps present-element waits generous and absent-element waits
// short; settle delays are zero.
var testTiming = Timing{
	Scrape:   5 * time.Second,
	PageLoad: time.Second,
	Consent:  30 * time.Millisecond,
	Login:    50 * time.Millisecond,
	Listing:  50 * time.Millisecond,
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(b)
}

// expandOnClick mimics the listing's "show more" script: the truncated span is
// replaced by the container's full text.
func expandOnClick(sel *goquery.Selection) {
	desc := sel.Parent()
	if full, ok := desc.Attr("data-full"); ok {
		desc.Find("span").First().SetText(full)
	}
}

// fakePage serves fixture markup per URL over dom.HTMLDocument. Waits for
// absent elements block until ctx expires, like a real driver.
type fakePage struct {
	mu    sync.Mutex
	pages map[string]string
	doc   *dom.HTMLDocument

	// submitTo returns the markup shown after the login form is submitted.
	submitTo func(typed map[string]string) string

	typed       map[string]string
	clicks      []string
	navigations []string
	expanded    int
}

func newFakePage(pages map[string]string) *fakePage {
	return &fakePage{pages: pages, typed: map[string]string{}}
}

// loginPages serves the listing behind a login that accepts testCreds.
func loginPages(t *testing.T, login, listing string) *fakePage {
	p := newFakePage(map[string]string{
		Workana.LoginURL:   fixture(t, login),
		Workana.ListingURL: fixture(t, listing),
	})
	dashboard := fixture(t, "dashboard.html")
	loginPage := fixture(t, login)
	p.submitTo = func(typed map[string]string) string {
		if typed[Workana.EmailInput.Selector] == testCreds.Email &&
			typed[Workana.PasswordIn.Selector] == testCreds.Password {
			return dashboard
		}
		return loginPage
	}
	return p
}

func (p *fakePage) load(markup, base string) error {
	doc, err := dom.ParseHTML(markup, base)
	if err != nil {
		return err
	}
	doc.OnClick = func(sel *goquery.Selection) {
		p.expanded++
		expandOnClick(sel)
	}
	p.doc = doc
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string, _ dom.WaitUntil) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	markup, ok := p.pages[url]
	p.mu.Unlock()
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(markup, url)
}

// find checks presence first so a present element is found even under an
// already-expired ctx.
func (p *fakePage) find(ctx context.Context, loc dom.Locator) (dom.Element, error) {
	p.mu.Lock()
	var el dom.Element
	var err error
	if p.doc != nil {
		el, err = p.doc.Find(loc)
	}
	p.mu.Unlock()
	if err != nil || el != nil {
		return el, err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *fakePage) WaitFor(ctx context.Context, loc dom.Locator) error {
	_, err := p.find(ctx, loc)
	return err
}

func (p *fakePage) Click(ctx context.Context, loc dom.Locator) error {
	if _, err := p.find(ctx, loc); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, loc.Selector)
	if loc == Workana.Submit && p.submitTo != nil {
		return p.load(p.submitTo(p.typed), Workana.LoginURL)
	}
	return nil
}

func (p *fakePage) Type(ctx context.Context, loc dom.Locator, text string) error {
	if _, err := p.find(ctx, loc); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[loc.Selector] = text
	return nil
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.QueryAll(ctx, selector)
}

type fakeSession struct{ page dom.Page }

func (s *fakeSession) Page() dom.Page { return s.page }
func (s *fakeSession) Close() error   { return nil }

// fakeSessions counts acquire/release pairs.
type fakeSessions struct {
	mu         sync.Mutex
	page       dom.Page
	acquireErr error
	acquired   int
	released   int

	// entered and hold, when set, park Acquire until hold is closed.
	entered chan struct{}
	hold    chan struct{}
}

func (f *fakeSessions) Acquire(ctx context.Context) (dom.Session, error) {
	f.mu.Lock()
	f.acquired++
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
		<-f.hold
	}
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeSession{page: f.page}, nil
}

func (f *fakeSessions) Release(dom.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func (f *fakeSessions) counts() (acquired, released int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired, f.released
}
