package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LinkSearch/internal/browser"
)

// fakeElement records the actions performed on it.
type fakeElement struct {
	name     string
	driver   *fakeDriver
	children map[string]*fakeElement
	clickErr error
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.driver.record("click " + e.name)
	return e.clickErr
}

func (e *fakeElement) Clear(ctx context.Context) error {
	e.driver.record("clear " + e.name)
	return nil
}

func (e *fakeElement) Type(ctx context.Context, text string) error {
	e.driver.record(fmt.Sprintf("type %s %q", e.name, text))
	return nil
}

func (e *fakeElement) Submit(ctx context.Context) error {
	e.driver.record("submit " + e.name)
	if e.driver.onSubmit != nil {
		e.driver.onSubmit()
	}
	return nil
}

func (e *fakeElement) Find(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	if child, ok := e.children[loc.Selector()]; ok {
		return browser.Lookup{Status: browser.Found, Element: child}
	}
	return browser.Lookup{Status: browser.NotFound, Err: errors.New("no child")}
}

// fakeDriver serves elements keyed by selector. Selectors that are not registered
// time out, like a control the site never shows.
type fakeDriver struct {
	url         string
	html        string
	navigateErr error
	elements    map[string]*fakeElement
	present     map[string]bool
	onSubmit    func()
	actions     []string
	visited     []string
}

func newFakeDriver(url string) *fakeDriver {
	return &fakeDriver{
		url:      url,
		elements: make(map[string]*fakeElement),
		present:  make(map[string]bool),
	}
}

func (d *fakeDriver) record(action string) {
	d.actions = append(d.actions, action)
}

func (d *fakeDriver) add(loc browser.Locator, name string) *fakeElement {
	el := &fakeElement{name: name, driver: d, children: make(map[string]*fakeElement)}
	d.elements[loc.Selector()] = el
	return el
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.visited = append(d.visited, url)
	return d.navigateErr
}

func (d *fakeDriver) WaitUntilClickable(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	if el, ok := d.elements[loc.Selector()]; ok {
		return browser.Lookup{Status: browser.Found, Element: el}
	}
	return browser.Lookup{Status: browser.Timeout, Err: context.DeadlineExceeded}
}

func (d *fakeDriver) WaitUntilPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	if d.present[loc.Selector()] {
		return browser.Lookup{Status: browser.Found, Element: &fakeElement{name: "results", driver: d}}
	}
	return d.WaitUntilClickable(ctx, loc, timeout)
}

func (d *fakeDriver) HTML(ctx context.Context) (string, error) {
	return d.html, nil
}

func (d *fakeDriver) URL() string {
	return d.url
}
