package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/workana-scraper/config"
	"github.com/use-agent/workana-scraper/dom"
)

// Site is the marketplace markup protocol. It is versioned by the
// marketplace's own HTML and breaks whenever that changes.
type Site struct {
	LoginURL   string
	ListingURL string

	Consent      dom.Locator
	EmailInput   dom.Locator
	PasswordIn   dom.Locator
	Submit       dom.Locator
	LoggedInMark dom.Locator

	ListingReady string
	ProjectItem  string
	ExpandLink   string
	Title        string
	Bids         string
	Date         string
	Budget       string
	Status       string
	Description  string
	DescLink     string
	Country      string

	// Localized markers on the Portuguese UI.
	ContactedMarker string
	BidsPrefix      string
	DatePrefix      string
}

// Workana is the protocol of www.workana.com.
var Workana = Site{
	LoginURL:   "https://www.workana.com/login",
	ListingURL: ListingURL("https://www.workana.com/jobs", []string{"en", "pt"}, "automação"),

	Consent:      dom.CSS("#onetrust-accept-btn-handler"),
	EmailInput:   dom.CSS("#email-input"),
	PasswordIn:   dom.CSS("#password-input"),
	Submit:       dom.CSS(`button[name="submit"]`),
	LoggedInMark: dom.Locator{Selector: "a", Text: "Meus projetos"},

	ListingReady: "#projects .project-item",
	ProjectItem:  ".project-item.js-project",
	ExpandLink:   ".html-desc a.link",
	Title:        ".project-title a",
	Bids:         ".bids",
	Date:         ".date",
	Budget:       ".budget .values span",
	Status:       "span.bid",
	Description:  ".html-desc.project-details",
	DescLink:     "a.link",
	Country:      ".country-name a",

	ContactedMarker: "Em contato",
	BidsPrefix:      "Propostas:",
	DatePrefix:      "Publicado:",
}

// ListingURL builds the filtered job listing URL.
func ListingURL(base string, languages []string, query string) string {
	v := url.Values{}
	v.Set("language", strings.Join(languages, ","))
	v.Set("query", query)
	return base + "?" + v.Encode()
}

// WithListing returns a copy of s whose listing URL uses cfg's filters.
func (s Site) WithListing(cfg config.ListingConfig) Site {
	base := s.ListingURL
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	s.ListingURL = ListingURL(base, cfg.Languages, cfg.Query)
	return s
}

// Validate compiles every selector so a malformed one fails at startup.
func (s Site) Validate() error {
	selectors := map[string]string{
		"consent":       s.Consent.Selector,
		"email":         s.EmailInput.Selector,
		"password":      s.PasswordIn.Selector,
		"submit":        s.Submit.Selector,
		"logged_in":     s.LoggedInMark.Selector,
		"listing_ready": s.ListingReady,
		"project_item":  s.ProjectItem,
		"expand_link":   s.ExpandLink,
		"title":         s.Title,
		"bids":          s.Bids,
		"date":          s.Date,
		"budget":        s.Budget,
		"status":        s.Status,
		"description":   s.Description,
		"desc_link":     s.DescLink,
		"country":       s.Country,
	}
	for name, sel := range selectors {
		if sel == "" {
			return fmt.Errorf("site: %s selector is empty", name)
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("site: %s selector %q: %w", name, sel, err)
		}
	}
	for name, u := range map[string]string{"login": s.LoginURL, "listing": s.ListingURL} {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("site: %s url %q: %w", name, u, err)
		}
	}
	return nil
}

// Timing holds the bounded waits and fixed settle delays of one scrape.
type Timing struct {
	Scrape        time.Duration
	PageLoad      time.Duration
	Consent       time.Duration
	ConsentSettle time.Duration
	Login         time.Duration
	Listing       time.Duration
	ExpandDelay   time.Duration
	ExpandSettle  time.Duration
}

// DefaultTiming matches the marketplace's observed rendering times.
var DefaultTiming = Timing{
	Scrape:        3 * time.Minute,
	PageLoad:      30 * time.Second,
	Consent:       5 * time.Second,
	ConsentSettle: 1 * time.Second,
	Login:         20 * time.Second,
	Listing:       15 * time.Second,
	ExpandDelay:   300 * time.Millisecond,
	ExpandSettle:  2 * time.Second,
}

// TimingFrom converts the scraper configuration.
func TimingFrom(cfg config.ScraperConfig) Timing {
	return Timing{
		Scrape:        cfg.ScrapeTimeout,
		PageLoad:      cfg.PageLoadTimeout,
		Consent:       cfg.ConsentTimeout,
		ConsentSettle: cfg.ConsentSettle,
		Login:         cfg.LoginTimeout,
		Listing:       cfg.ListingTimeout,
		ExpandDelay:   cfg.ExpandDelay,
		ExpandSettle:  cfg.ExpandSettle,
	}
}
