package scraper

import (
	"context"
	"fmt"
	"time"

	"LinkSearch/internal/browser"
	errs "LinkSearch/pkg/errors"
	"LinkSearch/pkg/logger"
)

// Pauser waits before a UI action.
type Pauser interface {
	Pause(ctx context.Context) error
}

// SiteAdapter runs the search state machine against one site described by a Profile.
type SiteAdapter struct {
	Profile Profile
	Pacer   Pauser

	// sleep waits for fixed delays such as Profile.Settle.
	sleep func(ctx context.Context, d time.Duration) error
	log   *logger.Logger
}

// NewSiteAdapter returns an adapter for p. A nil pacer disables pacing.
func NewSiteAdapter(p Profile, pacer *Pacer) *SiteAdapter {
	if pacer == nil {
		pacer = NoPacing()
	}
	return &SiteAdapter{
		Profile: p,
		Pacer:   pacer,
		sleep:   sleep,
		log:     logger.ForBrand(p.Brand),
	}
}

// Search loads website, clears the cookie banner and popup when present, searches for
// query and extracts the product links of the results page.
func (a *SiteAdapter) Search(ctx context.Context, d Driver, website, query string) (Result, error) {
	log := a.log.WithField("query", query)
	t := a.Profile.timeouts()
	state := StateStart

	log.Info().Str("website", website).Msg("Starting search")

	if err := d.Navigate(ctx, website); err != nil {
		return Result{}, a.fail(state, stepNavigate, "could not load site", err)
	}
	state = a.advance(log, state, StateNavigated)

	var soft []error
	if err := a.softClick(ctx, d, "consent", a.Profile.Consent, t.Consent); err != nil {
		soft = append(soft, err)
	}
	state = a.advance(log, state, StateConsented)

	if a.Profile.Settle > 0 {
		if err := a.sleep(ctx, a.Profile.Settle); err != nil {
			return Result{}, a.fail(state, stepSearch, "interrupted while waiting for the page to settle", err)
		}
	}

	if !a.Profile.Popup.IsZero() {
		if err := a.softClick(ctx, d, "popup", a.Profile.Popup, t.Popup); err != nil {
			soft = append(soft, err)
		}
		state = a.advance(log, state, StatePopupCleared)
	}

	if err := a.search(ctx, d, query, t.Search, &soft); err != nil {
		return Result{}, a.fail(state, stepSearch, "search could not be submitted", err)
	}
	state = a.advance(log, state, StateSearched)

	res, err := a.extract(ctx, d, t.Results)
	if err != nil {
		return Result{}, a.fail(state, stepExtract, "no results page", err)
	}
	a.advance(log, state, StateExtracted)
	res.SoftFailures = soft

	for _, link := range res.Links {
		log.Info().Str("product", res.Names[link.ID]).Str("id", link.ID).Str("link", link.Link).Msg("Product found")
	}
	for _, problem := range res.Problems {
		log.Warn().Str("problem", problem).Msg("Skipped result entry")
	}
	log.Info().
		Int("items", res.Items).
		Int("links", len(res.Links)).
		Int("skipped", res.Skipped).
		Msg("Search completed")
	return res, nil
}

// softClick clicks loc if it becomes clickable within timeout. Absence is expected:
// the site may not show the control at all. The returned ui error is for the record,
// never for the caller to abort on.
func (a *SiteAdapter) softClick(ctx context.Context, d Driver, what string, loc browser.Locator, timeout time.Duration) error {
	if loc.IsZero() {
		return nil
	}
	l := d.WaitUntilClickable(ctx, loc, timeout)
	if !l.Found() {
		err := errs.NewUI(a.Profile.Brand, what, "control not shown: "+l.Status.String(), l.Err)
		a.log.Debug().Err(err).Msg("Control not shown, continuing")
		return err
	}
	if err := a.Pacer.Pause(ctx); err != nil {
		return errs.NewUI(a.Profile.Brand, what, "interrupted before click", err)
	}
	if err := l.Element.Click(ctx); err != nil {
		err = errs.NewUI(a.Profile.Brand, what, "could not click control", err)
		a.log.Warn().Err(err).Msg("Could not click control, continuing")
		return err
	}
	a.log.Debug().Str("control", what).Msg("Control clicked")
	return nil
}

// search fills in and submits the search box. Every click and keystroke is preceded
// by a pause.
func (a *SiteAdapter) search(ctx context.Context, d Driver, query string, timeout time.Duration, soft *[]error) error {
	p := a.Profile

	if !p.OpenSearch.IsZero() {
		if err := a.softClick(ctx, d, "open search", p.OpenSearch, timeout); err != nil {
			*soft = append(*soft, err)
		}
	}

	var box browser.Element
	if !p.SearchContainer.IsZero() {
		container := d.WaitUntilClickable(ctx, p.SearchContainer, timeout)
		if !container.Found() {
			return lookupError("search form", p.SearchContainer, container)
		}
		input := container.Element.Find(ctx, p.SearchInput, timeout)
		if !input.Found() {
			return lookupError("search input", p.SearchInput, input)
		}
		if err := a.act(ctx, "focus search input", input.Element.Click); err != nil {
			return err
		}
		box = input.Element
	} else {
		input := d.WaitUntilClickable(ctx, p.SearchInput, timeout)
		if !input.Found() {
			return lookupError("search input", p.SearchInput, input)
		}
		box = input.Element
	}

	if err := a.act(ctx, "clear search input", box.Clear); err != nil {
		return err
	}
	typeQuery := func(ctx context.Context) error { return box.Type(ctx, query) }
	if err := a.act(ctx, "type query", typeQuery); err != nil {
		return err
	}
	return a.act(ctx, "submit search", box.Submit)
}

// act pauses, then runs one UI action.
func (a *SiteAdapter) act(ctx context.Context, what string, action func(context.Context) error) error {
	if err := a.Pacer.Pause(ctx); err != nil {
		return err
	}
	if err := action(ctx); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (a *SiteAdapter) extract(ctx context.Context, d Driver, timeout time.Duration) (Result, error) {
	if err := a.Pacer.Pause(ctx); err != nil {
		return Result{}, err
	}
	l := d.WaitUntilPresent(ctx, a.Profile.Results, timeout)
	if !l.Found() {
		return Result{}, lookupError("results", a.Profile.Results, l)
	}
	html, err := d.HTML(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read results page: %w", err)
	}
	return ExtractLinks(html, d.URL(), a.Profile)
}

func (a *SiteAdapter) advance(log *logger.Logger, from, to State) State {
	log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("State changed")
	return to
}

func (a *SiteAdapter) fail(reached State, step, message string, err error) error {
	a.log.Debug().Str("reached", string(reached)).Str("to", string(StateFailed)).Msg("State changed")
	return errs.NewAttempt(a.Profile.Brand, step, message, err)
}

func lookupError(what string, loc browser.Locator, l browser.Lookup) error {
	if l.Err != nil {
		return fmt.Errorf("%s %s: %s: %w", what, loc, l.Status, l.Err)
	}
	return fmt.Errorf("%s %s: %s", what, loc, l.Status)
}
