package scraper

import (
	"context"
	"fmt"

	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
)

// Navigator opens the filtered job listing on an authenticated page.
type Navigator struct {
	site   Site
	timing Timing
}

// NewNavigator creates a Navigator.
func NewNavigator(site Site, timing Timing) *Navigator {
	return &Navigator{site: site, timing: timing}
}

// GoToListing waits for DOM completion only, since items load asynchronously,
// then for at least one project item. A listing that never shows an item is an
// error, never an empty result.
func (n *Navigator) GoToListing(ctx context.Context, page dom.Page) error {
	navCtx, cancel := context.WithTimeout(ctx, n.timing.PageLoad)
	err := page.Navigate(navCtx, n.site.ListingURL, dom.DOMContentLoaded)
	cancel()
	if err != nil {
		return categorizeError(err, models.ErrCodeNavigationTimeout, models.StepNavigateListing,
			"listing page did not load")
	}

	waitCtx, cancel := context.WithTimeout(ctx, n.timing.Listing)
	defer cancel()
	if err := page.WaitFor(waitCtx, dom.CSS(n.site.ListingReady)); err != nil {
		return categorizeError(err, models.ErrCodeNavigationTimeout, models.StepWaitListing,
			fmt.Sprintf("no project item %q appeared within %s", n.site.ListingReady, n.timing.Listing))
	}
	return nil
}
