package scraper

import (
	"time"

	"LinkSearch/internal/browser"
)

// Prozis uses Cookiebot and a search box that is always visible.
var Prozis = Profile{
	Brand:       "Prozis",
	Consent:     browser.ID("CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"),
	SearchInput: browser.ID("quick-search_query"),
	Results:     browser.CSS(".col.list-item"),
	Link:        "a.click-layer",
	ID:          IDLastSegment,
}

// MyProtein hides its search box behind a header toggle and shows an email popup.
var MyProtein = Profile{
	Brand:       "MyProtein",
	Consent:     browser.ID("onetrust-accept-btn-handler"),
	Popup:       browser.CSS("button.emailReengagement_close_button"),
	OpenSearch:  browser.CSS("button.headerSearch_toggleForm"),
	SearchInput: browser.Name("search"),
	Results:     browser.CSS("ul.productListProducts_products"),
	Items:       "li.productListProducts_product",
	Link:        "a.productBlock_link",
	ID:          IDSecondToLastSegment,
}

// Zumub shows its registration popup several seconds after the cookie banner, and
// its search input only takes focus once clicked inside the search form.
var Zumub = Profile{
	Brand:           "Zumub",
	Consent:         browser.ID("CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"),
	Settle:          10 * time.Second,
	Popup:           browser.Class("register-popup-close-cross"),
	SearchContainer: browser.Class("search-form"),
	SearchInput:     browser.Class("txt_searchbox"),
	Results:         browser.Class("list-product-75"),
	Items:           ".product-detail",
	Link:            "a",
	Title:           "p",
	ID:              IDLastSegment,
}

// Profiles lists every supported site.
func Profiles() []Profile {
	return []Profile{Prozis, MyProtein, Zumub}
}

// DefaultRegistry returns an adapter for every supported site, sharing one pacer.
func DefaultRegistry(pacer *Pacer) Registry {
	r := make(Registry)
	for _, p := range Profiles() {
		r[p.Brand] = NewSiteAdapter(p, pacer)
	}
	return r
}
