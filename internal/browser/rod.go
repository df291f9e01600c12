package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	domStableInterval        = 300 * time.Millisecond
)

const inputsScript = `() => JSON.stringify(Array.from(document.querySelectorAll('input')).map(el => ({
  type: el.type || '',
  id: el.id || '',
  name: el.name || '',
  placeholder: el.placeholder || ''
})))`

// Options configures how Chrome is started.
type Options struct {
	Headless  bool
	Bin       string
	RemoteURL string // connect to this DevTools endpoint instead of launching
	NoSandbox bool

	NavigationTimeout time.Duration
}

// Launcher opens stealth-configured Chrome sessions with go-rod.
type Launcher struct {
	opts    Options
	profile Profile
	logger  zerolog.Logger
}

func NewLauncher(opts Options, profile Profile, logger zerolog.Logger) *Launcher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaultNavigationTimeout
	}
	return &Launcher{
		opts:    opts,
		profile: profile,
		logger:  logger.With().Str("component", "browser").Logger(),
	}
}

// Open starts (or connects to) Chrome, creates an isolated browser context
// and a single page with the stealth profile applied.
func (l *Launcher) Open(ctx context.Context) (Session, error) {
	s := &RodSession{
		navTimeout: l.opts.NavigationTimeout,
		logger:     l.logger,
	}

	controlURL := l.opts.RemoteURL
	if controlURL == "" {
		lnch := launcher.New().Context(ctx).Headless(l.opts.Headless).Leakless(true)
		if l.opts.Bin != "" {
			lnch = lnch.Bin(l.opts.Bin)
		}
		for _, f := range l.profile.LaunchFlags() {
			if !l.opts.NoSandbox && (f.Name == "no-sandbox" || f.Name == "disable-setuid-sandbox") {
				continue
			}
			lnch = lnch.Set(flags.Flag(f.Name), f.Values...)
		}

		u, err := lnch.Launch()
		if err != nil {
			lnch.Cleanup()
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
		s.launcher = lnch
		l.logger.Debug().Bool("headless", l.opts.Headless).Msg("launched local chrome")
	} else {
		l.logger.Debug().Str("url", controlURL).Msg("connecting to remote chrome")
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.release()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	s.ownsBrowser = l.opts.RemoteURL == ""

	incognito, err := b.Incognito()
	if err != nil {
		s.release()
		return nil, fmt.Errorf("browser: create context: %w", err)
	}
	s.context = incognito

	page, err := stealth.Page(incognito)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	s.page = page

	for _, applyErr := range ApplyProfile(incognito, page, l.profile) {
		l.logger.Warn().Err(applyErr).Msg("stealth override not applied")
	}

	return s, nil
}

// ApplyProfile installs the profile on a fresh page. Failures are returned
// for logging only; none of them prevents the page from being used.
func ApplyProfile(b *rod.Browser, page *rod.Page, p Profile) []error {
	var errs []error
	record := func(what string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		}
	}

	_, err := page.EvalOnNewDocument(p.InitScript())
	record("init script", err)

	record("user agent", page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      p.UserAgent,
		AcceptLanguage: p.AcceptLanguage(),
		Platform:       p.Platform,
	}))

	record("viewport", page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.Viewport.Width,
		Height:            p.Viewport.Height,
		DeviceScaleFactor: 1,
	}))

	if p.Timezone != "" {
		record("timezone", proto.EmulationSetTimezoneOverride{TimezoneID: p.Timezone}.Call(page))
	}
	if p.Locale != "" {
		record("locale", proto.EmulationSetLocaleOverride{Locale: p.Locale}.Call(page))
	}

	if pairs := p.HeaderPairs(); len(pairs) > 0 {
		_, err := page.SetExtraHeaders(pairs)
		record("headers", err)
	}

	if p.GrantGeolocation && b != nil {
		record("geolocation", proto.BrowserGrantPermissions{
			Permissions:      []proto.BrowserPermissionType{proto.BrowserPermissionTypeGeolocation},
			BrowserContextID: b.BrowserContextID,
		}.Call(b))
	}

	return errs
}

// RodSession is a Session backed by a single rod page.
type RodSession struct {
	browser     *rod.Browser
	context     *rod.Browser
	page        *rod.Page
	launcher    *launcher.Launcher
	ownsBrowser bool

	navTimeout time.Duration
	logger     zerolog.Logger
	closeOnce  sync.Once
	closeErr   error
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, s.classify(ctx, "", err))
	}
	loadCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	if err := p.Context(loadCtx).WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug().Err(err).Str("url", url).Msg("page load did not finish, continuing")
	}
	return nil
}

func (s *RodSession) Back(ctx context.Context) error {
	if err := s.page.Context(ctx).NavigateBack(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

func (s *RodSession) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (s *RodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

func (s *RodSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := s.page.Context(waitCtx).Element(selector)
	return s.classify(ctx, selector, err)
}

func (s *RodSession) Exists(ctx context.Context, selector string) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", selector, err)
	}
	return has, nil
}

func (s *RodSession) TypeSlowly(ctx context.Context, selector, text string, delay time.Duration) error {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	if !has {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			// The text itself is never part of the error.
			return fmt.Errorf("type into %s: %w", selector, err)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func (s *RodSession) Click(ctx context.Context, selector string, index int) error {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	if index < 0 || index >= len(els) {
		return fmt.Errorf("%w: %s[%d]", ErrElementNotFound, selector, index)
	}
	if err := els[index].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (s *RodSession) WaitStable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := s.page.Context(waitCtx).WaitDOMStable(domStableInterval, 0)
	return s.classify(ctx, "", err)
}

func (s *RodSession) Inputs(ctx context.Context) ([]InputInfo, error) {
	res, err := s.page.Context(ctx).Eval(inputsScript)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	var inputs []InputInfo
	if err := json.Unmarshal([]byte(res.Value.Str()), &inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	return inputs, nil
}

// Close tears down the page, its browser context and, when this session
// launched it, the Chrome process.
func (s *RodSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.release()
	})
	return s.closeErr
}

func (s *RodSession) release() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil && s.ownsBrowser {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

// classify maps rod timeouts to ErrElementNotFound while keeping caller
// cancellation visible as the context error.
func (s *RodSession) classify(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if selector == "" {
			return err
		}
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return err
}

var _ Opener = (*Launcher)(nil)
var _ Session = (*RodSession)(nil)
