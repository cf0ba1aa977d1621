package scraper

import (
	"context"
	"time"

	"LinkSearch/internal/browser"
	"LinkSearch/internal/models"
)

// Driver is the part of a browser session an adapter needs. *browser.Session
// implements it; tests use a scripted fake.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitUntilClickable(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup
	WaitUntilPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup
	HTML(ctx context.Context) (string, error)
	URL() string
}

// Adapter runs one search on one site and returns the product links of the first
// results page. Every site we support shares the same Adapter: SiteAdapter driven by
// a Profile.
type Adapter interface {
	Search(ctx context.Context, d Driver, website, query string) (Result, error)
}

// Result is what one search produced. Items counts result entries on the page, so a
// clean empty search (Items == 0) can be told apart from a page whose entries could
// not be read (Skipped > 0).
type Result struct {
	Links []models.DiscoveredLink

	// Names maps a link id to the product name shown on the page, when there is one.
	Names map[string]string

	Items      int
	Skipped    int
	Duplicates int
	Problems   []string

	// SoftFailures are the ui errors of optional steps, such as a consent banner
	// that never showed.
	SoftFailures []error
}

// Partial reports whether some result entries were dropped.
func (r Result) Partial() bool {
	return r.Skipped > 0
}

// Registry maps a brand name to its adapter.
type Registry map[string]Adapter

// Lookup returns the adapter registered for brand.
func (r Registry) Lookup(brand string) (Adapter, bool) {
	a, ok := r[brand]
	return a, ok && a != nil
}
