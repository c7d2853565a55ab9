// Package dom defines the DOM-query capability the scraper works against.
//
// Browser drivers (package browser) implement it over a live page; HTMLDocument
// implements it over static markup so the extraction algorithm can run on a
// saved snapshot or in tests.
package dom

import (
	"context"
	"strconv"
)

// WaitUntil selects the readiness condition of a navigation.
type WaitUntil int

const (
	// NetworkIdle waits until network activity settles.
	NetworkIdle WaitUntil = iota
	// DOMContentLoaded waits for the parsed document only.
	DOMContentLoaded
)

func (w WaitUntil) String() string {
	switch w {
	case NetworkIdle:
		return "networkidle"
	case DOMContentLoaded:
		return "domcontentloaded"
	default:
		return "WaitUntil(" + strconv.Itoa(int(w)) + ")"
	}
}

// Locator addresses an element by CSS selector, optionally narrowed to the
// first match whose text contains Text.
type Locator struct {
	Selector string
	Text     string
}

// CSS is a Locator without a text filter.
func CSS(selector string) Locator {
	return Locator{Selector: selector}
}

func (l Locator) String() string {
	if l.Text == "" {
		return l.Selector
	}
	return l.Selector + " (text " + strconv.Quote(l.Text) + ")"
}

// Element is a handle on one DOM element.
type Element interface {
	// Query returns the first descendant matching selector, or nil when there
	// is none. It never waits.
	Query(selector string) (Element, error)

	// QueryAll returns all descendants matching selector in document order.
	QueryAll(selector string) ([]Element, error)

	// Text returns the rendered text of the element.
	Text() (string, error)

	// Href returns the absolute link target, or "" when the element has none.
	Href() (string, error)

	// Clone returns a detached deep copy; changes to it do not affect the page.
	Clone() (Element, error)

	// RemoveMatching removes every descendant matching selector.
	RemoveMatching(selector string) error

	// Click activates the element.
	Click() error
}

// Document is a queryable page.
type Document interface {
	// QueryAll returns all elements matching selector in document order.
	// Element handles stay bound to ctx.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// Page is a navigable, interactive Document. Every blocking method is bounded
// by ctx; an expired ctx surfaces as an error wrapping
// context.DeadlineExceeded.
type Page interface {
	Document

	// Navigate loads url and waits for the given readiness condition.
	Navigate(ctx context.Context, url string, until WaitUntil) error

	// WaitFor blocks until an element matching loc exists.
	WaitFor(ctx context.Context, loc Locator) error

	// Click waits for loc and activates it.
	Click(ctx context.Context, loc Locator) error

	// Type waits for loc and types text into it.
	Type(ctx context.Context, loc Locator, text string) error
}

// Session is one exclusively-owned browser instance with one page.
type Session interface {
	Page() Page
	Close() error
}
