package browser

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"LinkSearch/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Options only change how the browser process is launched and rendered.
type Options struct {
	ViewportWidth  int
	ViewportHeight int
	Headless       bool
	// IsolateProfile opens the page in an incognito browser context.
	IsolateProfile bool
	NoSandbox      bool
	Stealth        bool
	// NavigateTimeout bounds page loads. Zero means 60s.
	NavigateTimeout time.Duration
	// ActionTimeout bounds each click, clear, type and submit. Zero means 10s.
	ActionTimeout time.Duration
}

const (
	defaultNavigateTimeout = 60 * time.Second
	defaultActionTimeout   = 10 * time.Second
)

// Session owns one browser process and the single page all adapters drive.
// It is not safe for concurrent use.
type Session struct {
	launcher      *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	navTimeout    time.Duration
	actionTimeout time.Duration
	log           *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open launches a browser and opens an empty page.
func Open(ctx context.Context, opts Options) (*Session, error) {
	log := logger.ForComponent("browser")

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		l = l.Set(flags.Flag("window-size"), strconv.Itoa(opts.ViewportWidth)+","+strconv.Itoa(opts.ViewportHeight))
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s := &Session{launcher: l, navTimeout: opts.NavigateTimeout, actionTimeout: opts.ActionTimeout, log: log}
	if s.navTimeout == 0 {
		s.navTimeout = defaultNavigateTimeout
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	s.browser = b

	target := s.browser
	if opts.IsolateProfile {
		if target, err = s.browser.Incognito(); err != nil {
			s.Close()
			return nil, fmt.Errorf("open incognito context: %w", err)
		}
	}

	if opts.Stealth {
		s.page, err = stealth.Page(target)
	} else {
		s.page, err = target.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		err = s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	log.Info().
		Bool("headless", opts.Headless).
		Bool("isolated", opts.IsolateProfile).
		Int("width", opts.ViewportWidth).
		Int("height", opts.ViewportHeight).
		Msg("Browser session opened")
	return s, nil
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.navTimeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load of %s: %w", url, err)
	}
	return nil
}

// WaitUntilPresent waits up to timeout for an element matching loc to be in the DOM.
func (s *Session) WaitUntilPresent(ctx context.Context, loc Locator, timeout time.Duration) Lookup {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(tctx).Element(loc.Selector())
	if err != nil {
		return classify(ctx, err)
	}
	return Lookup{Status: Found, Element: s.element(el)}
}

// WaitUntilClickable waits up to timeout for an element matching loc to be visible
// and enabled.
func (s *Session) WaitUntilClickable(ctx context.Context, loc Locator, timeout time.Duration) Lookup {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(tctx).Element(loc.Selector())
	if err != nil {
		return classify(ctx, err)
	}
	if err := waitClickable(el); err != nil {
		return classify(ctx, err)
	}
	return Lookup{Status: Found, Element: s.element(el)}
}

// HTML returns the current document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// URL returns the page's current location, or "" if it cannot be read.
func (s *Session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close shuts the browser down and kills its process. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.log.Info().Msg("Browser session closed")
	})
	return s.closeErr
}

func waitClickable(el *rod.Element) error {
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.WaitEnabled()
}

func (s *Session) element(el *rod.Element) *rodElement {
	timeout := s.actionTimeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	return &rodElement{el: el, timeout: timeout}
}

// rodElement runs every action under its own deadline. rod retries a covered or
// read-only element until its context ends, so an unbounded action could hang the run.
type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *rodElement) bounded(ctx context.Context) (*rod.Element, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	return e.el.Context(tctx), cancel
}

func (e *rodElement) Click(ctx context.Context) error {
	el, cancel := e.bounded(ctx)
	defer cancel()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Clear(ctx context.Context) error {
	el, cancel := e.bounded(ctx)
	defer cancel()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

func (e *rodElement) Type(ctx context.Context, text string) error {
	el, cancel := e.bounded(ctx)
	defer cancel()
	return el.Input(text)
}

func (e *rodElement) Submit(ctx context.Context) error {
	el, cancel := e.bounded(ctx)
	defer cancel()
	return el.Type(input.Enter)
}

// Find looks for a descendant once, without waiting for it to appear: the parent is
// already rendered when it is found. timeout bounds the query itself.
func (e *rodElement) Find(ctx context.Context, loc Locator, timeout time.Duration) Lookup {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	child, err := e.el.Context(tctx).Sleeper(rod.NotFoundSleeper).Element(loc.Selector())
	if err != nil {
		return classify(ctx, err)
	}
	return Lookup{Status: Found, Element: &rodElement{el: child, timeout: e.timeout}}
}
