package dom

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// HTMLDocument is a Document over static markup, backed by goquery.
// Clicks do not run scripts; set OnClick to simulate what a click would do.
type HTMLDocument struct {
	doc  *goquery.Document
	base *url.URL

	// OnClick, when set, runs for every Element.Click with the clicked node.
	OnClick func(sel *goquery.Selection)
}

// NewHTMLDocument parses r. Relative links are resolved against baseURL,
// which may be empty.
func NewHTMLDocument(r io.Reader, baseURL string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &HTMLDocument{doc: doc}
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		d.base = base
	}
	return d, nil
}

// ParseHTML is NewHTMLDocument over a string.
func ParseHTML(markup, baseURL string) (*HTMLDocument, error) {
	return NewHTMLDocument(strings.NewReader(markup), baseURL)
}

// Selection exposes the underlying goquery document.
func (d *HTMLDocument) Selection() *goquery.Selection {
	return d.doc.Selection
}

// QueryAll implements Document.
func (d *HTMLDocument) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.queryAll(d.doc.Selection, selector)
}

// Find returns the first element matching loc, or nil.
func (d *HTMLDocument) Find(loc Locator) (Element, error) {
	m, err := compile(loc.Selector)
	if err != nil {
		return nil, err
	}
	var found *goquery.Selection
	d.doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if loc.Text == "" || strings.Contains(s.Text(), loc.Text) {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil
	}
	return &htmlElement{sel: found, doc: d}, nil
}

func (d *HTMLDocument) queryAll(from *goquery.Selection, selector string) ([]Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	matches := from.FindMatcher(m)
	out := make([]Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &htmlElement{sel: s, doc: d})
	})
	return out, nil
}

func compile(selector string) (goquery.Matcher, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}

type htmlElement struct {
	sel *goquery.Selection
	doc *HTMLDocument
}

func (e *htmlElement) Query(selector string) (Element, error) {
	m, err := compile(selector)
	if err != nil {
		return nil, err
	}
	s := e.sel.FindMatcher(m).First()
	if s.Length() == 0 {
		return nil, nil
	}
	return &htmlElement{sel: s, doc: e.doc}, nil
}

func (e *htmlElement) QueryAll(selector string) ([]Element, error) {
	return e.doc.queryAll(e.sel, selector)
}

func (e *htmlElement) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *htmlElement) Href() (string, error) {
	href, ok := e.sel.Attr("href")
	if !ok {
		return "", nil
	}
	if e.doc.base == nil {
		return href, nil
	}
	u, err := e.doc.base.Parse(href)
	if err != nil {
		return href, nil
	}
	return u.String(), nil
}

func (e *htmlElement) Clone() (Element, error) {
	return &htmlElement{sel: e.sel.Clone(), doc: e.doc}, nil
}

func (e *htmlElement) RemoveMatching(selector string) error {
	m, err := compile(selector)
	if err != nil {
		return err
	}
	e.sel.FindMatcher(m).Remove()
	return nil
}

func (e *htmlElement) Click() error {
	if e.doc.OnClick != nil {
		e.doc.OnClick(e.sel)
	}
	return nil
}
