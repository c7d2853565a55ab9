package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// Extractor reads project records from a loaded listing.
//
// The marketplace truncates descriptions by default, so extraction runs in two
// phases: expand every item, settle, then re-query and read.
type Extractor struct {
	site   Site
	timing Timing
}

// NewExtractor creates an Extractor.
func NewExtractor(site Site, timing Timing) *Extractor {
	return &Extractor{site: site, timing: timing}
}

// Extract returns the records in document order.
func (x *Extractor) Extract(ctx context.Context, doc dom.Document) ([]models.ProjectRecord, error) {
	if err := x.expand(ctx, doc); err != nil {
		return nil, err
	}

	items, err := doc.QueryAll(ctx, x.site.ProjectItem)
	if err != nil {
		return nil, extractionError(models.StepExtract, "failed to query project items", err)
	}

	records := make([]models.ProjectRecord, 0, len(items))
	for i, item := range items {
		rec, err := x.readRecord(item)
		if err != nil {
			return nil, extractionError(models.StepExtract, fmt.Sprintf("failed to read project item %d", i), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// expand clicks each item's "show more" control one at a time; concurrent
// clicks would race the page's own DOM mutations.
func (x *Extractor) expand(ctx context.Context, doc dom.Document) error {
	items, err := doc.QueryAll(ctx, x.site.ProjectItem)
	if err != nil {
		return extractionError(models.StepExpand, "failed to query project items", err)
	}

	expanded := 0
	for i, item := range items {
		link, err := item.Query(x.site.ExpandLink)
		if err != nil {
			return extractionError(models.StepExpand, fmt.Sprintf("failed to query expand link of item %d", i), err)
		}
		if link == nil {
			continue
		}
		if err := link.Click(); err != nil {
			if isContextErr(err) {
				return extractionError(models.StepExpand, "expansion interrupted", err)
			}
			slog.Warn("failed to expand project description, keeping truncated text",
				"item", i, "error", err)
			continue
		}
		expanded++
		if err := sleep(ctx, x.timing.ExpandDelay); err != nil {
			return extractionError(models.StepExpand, "expansion interrupted", err)
		}
	}

	slog.Debug("project descriptions expanded", "items", len(items), "expanded", expanded)
	if err := sleep(ctx, x.timing.ExpandSettle); err != nil {
		return extractionError(models.StepExpand, "expansion settle interrupted", err)
	}
	return nil
}

// readRecord reads one item. Every sub-field is independently optional.
func (x *Extractor) readRecord(item dom.Element) (models.ProjectRecord, error) {
	rec := models.NewProjectRecord()

	title, err := item.Query(x.site.Title)
	if err != nil {
		return rec, err
	}
	if title != nil {
		text, err := title.Text()
		if err != nil {
			return rec, err
		}
		rec.Title = ptr(strings.TrimSpace(text))

		href, err := title.Href()
		if err != nil {
			return rec, err
		}
		if href != "" {
			rec.URL = ptr(href)
		}
	}

	if rec.Bids, err = x.optionalText(item, x.site.Bids, x.site.BidsPrefix); err != nil {
		return rec, err
	}
	if rec.PublishedDate, err = x.optionalText(item, x.site.Date, x.site.DatePrefix); err != nil {
		return rec, err
	}
	if rec.Budget, err = x.optionalText(item, x.site.Budget, ""); err != nil {
		return rec, err
	}

	status, err := x.optionalText(item, x.site.Status, "")
	if err != nil {
		return rec, err
	}
	rec.Contacted = status != nil && strings.Contains(*status, x.site.ContactedMarker)

	if rec.Description, err = x.description(item); err != nil {
		return rec, err
	}

	country, err := x.optionalText(item, x.site.Country, "")
	if err != nil {
		return rec, err
	}
	rec.Country = models.StringOr(country, models.NotAvailable)

	return rec, nil
}

// optionalText returns the trimmed text of selector with the first occurrence
// of prefix removed, or nil when the element is absent.
func (x *Extractor) optionalText(item dom.Element, selector, prefix string) (*string, error) {
	el, err := item.Query(selector)
	if err != nil || el == nil {
		return nil, err
	}
	text, err := el.Text()
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		text = strings.Replace(text, prefix, "", 1)
	}
	return ptr(strings.TrimSpace(text)), nil
}

// description reads a clone of the description container with its expand
// links stripped, so their labels do not end up in the text.
func (x *Extractor) description(item dom.Element) (string, error) {
	desc, err := item.Query(x.site.Description)
	if err != nil {
		return "", err
	}
	if desc == nil {
		return models.NotAvailable, nil
	}
	clone, err := desc.Clone()
	if err != nil {
		return "", err
	}
	if err := clone.RemoveMatching(x.site.DescLink); err != nil {
		return "", err
	}
	text, err := clone.Text()
	if err != nil {
		return "", err
	}
	return collapseSpace(text), nil
}

// collapseSpace turns every whitespace run into one space and trims.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func extractionError(step, msg string, err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeExtraction, msg, err).AtStep(step)
}

func ptr(s string) *string { return &s }
