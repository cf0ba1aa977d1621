package scraper

import (
	"time"

	"LinkSearch/internal/browser"
)

// IDFromEnd picks which path segment of a product link becomes its id.
type IDFromEnd int

const (
	IDLastSegment         IDFromEnd = 0
	IDSecondToLastSegment IDFromEnd = 1
)

// Timeouts bound each wait of the state machine.
type Timeouts struct {
	Consent time.Duration
	Popup   time.Duration
	Search  time.Duration
	Results time.Duration
}

// DefaultTimeouts are the waits every supported site works with.
var DefaultTimeouts = Timeouts{
	Consent: 10 * time.Second,
	Popup:   5 * time.Second,
	Search:  10 * time.Second,
	Results: 10 * time.Second,
}

// Profile is the locator table for one site. Everything that differs between sites
// lives here; the state machine in SiteAdapter is shared.
type Profile struct {
	Brand string

	// Consent is the cookie banner's accept button.
	Consent browser.Locator
	// Settle is a fixed wait after the consent step, for sites that show their popup late.
	Settle time.Duration
	// Popup is an optional interstitial close button.
	Popup browser.Locator

	// OpenSearch is clicked first when the search box is collapsed behind a toggle.
	OpenSearch browser.Locator
	// SearchContainer, when set, is located first and SearchInput is looked up inside it.
	SearchContainer browser.Locator
	SearchInput     browser.Locator

	// Results is waited for before extraction. Items is a CSS selector evaluated inside
	// the first Results match; when empty every Results match is an item.
	Results browser.Locator
	Items   string
	// Link selects the product anchor inside an item. Title optionally selects the
	// product name for logging; the anchor's text or aria-label is used otherwise.
	Link  string
	Title string
	ID    IDFromEnd

	Timeouts Timeouts
}

func (p Profile) timeouts() Timeouts {
	t := p.Timeouts
	if t.Consent == 0 {
		t.Consent = DefaultTimeouts.Consent
	}
	if t.Popup == 0 {
		t.Popup = DefaultTimeouts.Popup
	}
	if t.Search == 0 {
		t.Search = DefaultTimeouts.Search
	}
	if t.Results == 0 {
		t.Results = DefaultTimeouts.Results
	}
	return t
}
