package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/logging"
	"github.com/mrlokans/notebooksync/internal/notebook"
)

const redirectPollInterval = 250 * time.Millisecond

// Establisher drives the identity provider's sign-in flow.
type Establisher struct {
	sel      notebook.Selectors
	opts     Options
	redirect *regexp.Regexp
	logger   zerolog.Logger
}

func NewEstablisher(sel notebook.Selectors, opts Options, logger zerolog.Logger) (*Establisher, error) {
	redirect, err := regexp.Compile(opts.Endpoints.URLPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid notebook url pattern %q: %w", opts.Endpoints.URLPattern, err)
	}
	return &Establisher{
		sel:      sel,
		opts:     opts,
		redirect: redirect,
		logger:   logger.With().Str("component", "login").Logger(),
	}, nil
}

// SignIn authenticates s. It returns nil only once the browser has been
// redirected to the notebook; every failure unwraps to ErrAuthentication.
func (e *Establisher) SignIn(ctx context.Context, s browser.Session, creds Credentials) error {
	log := e.logger.With().Str("identifier", logging.MaskIdentifier(creds.Identifier)).Logger()

	// The home page sets the provider's anti-bot cookies before sign-in.
	if err := e.visit(ctx, s, "home page", e.opts.Endpoints.HomeURL, e.opts.Pacing.HomeDwell); err != nil {
		return err
	}
	if err := e.visit(ctx, s, "sign-in page", e.opts.Endpoints.SignInURL, e.opts.Pacing.SignInDwell); err != nil {
		return err
	}

	field, err := e.locate(ctx, s, creds, "identifier", waitFor(s, e.sel.IdentifierFields, e.opts.Timeouts.SelectorProbe))
	if err != nil {
		return err
	}
	log.Debug().Str("selector", field).Msg("identifier field found")
	if err := e.enter(ctx, s, field, creds.Identifier, "identifier"); err != nil {
		return err
	}
	e.press(ctx, s, "continue", e.sel.ContinueControls, log)
	if err := e.dwell(ctx, e.opts.Pacing.ContinueDwell); err != nil {
		return err
	}

	field, err = e.locate(ctx, s, creds, "secret", waitFor(s, e.sel.SecretFields, e.opts.Timeouts.SecretField))
	if err != nil {
		return err
	}
	log.Debug().Str("selector", field).Msg("secret field found")
	if err := e.enter(ctx, s, field, creds.Secret, "secret"); err != nil {
		return err
	}
	e.press(ctx, s, "submit", e.sel.SubmitControls, log)
	if err := e.dwell(ctx, e.opts.Pacing.SubmitDwell); err != nil {
		return err
	}

	landed, err := e.awaitRedirect(ctx, s, creds)
	if err != nil {
		return err
	}

	if err := s.WaitStable(ctx, e.opts.Timeouts.LibraryWait); err != nil {
		if ctx.Err() != nil {
			return &AuthenticationError{Step: "post-login load", Err: ctx.Err()}
		}
		log.Debug().Err(err).Msg("notebook did not settle, continuing")
	}

	log.Info().Str("url", landed).Msg("signed in")
	return nil
}

func (e *Establisher) visit(ctx context.Context, s browser.Session, step, url string, dwell time.Duration) error {
	if err := s.Navigate(ctx, url); err != nil {
		return &AuthenticationError{Step: step, Err: err}
	}
	return e.dwell(ctx, dwell)
}

func (e *Establisher) dwell(ctx context.Context, d time.Duration) error {
	if err := pause(ctx, d); err != nil {
		return &AuthenticationError{Step: "wait", Err: err}
	}
	return nil
}

// locate runs the fallback chain for one field and turns a miss into a
// SelectorNotFoundError carrying what the page offered instead.
func (e *Establisher) locate(ctx context.Context, s browser.Session, creds Credentials, field string, chain []Strategy) (string, error) {
	selector, err := FirstMatch(ctx, chain)
	if err == nil {
		return selector, nil
	}
	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		return "", &AuthenticationError{Step: field + " field", Err: err}
	}

	notFound := &SelectorNotFoundError{
		Field:     field,
		Attempted: noMatch.Names(),
		Snippet:   creds.redact(pageSnippet(ctx, s)),
	}
	if inputs, inErr := s.Inputs(ctx); inErr == nil {
		notFound.Inputs = inputs
	}
	e.logger.Warn().
		Str("field", field).
		Strs("attempted", notFound.Attempted).
		Int("inputs", len(notFound.Inputs)).
		Msg("sign-in field not found")
	return "", notFound
}

// enter types value into selector. The value never appears in the error.
func (e *Establisher) enter(ctx context.Context, s browser.Session, selector, value, field string) error {
	if err := s.TypeSlowly(ctx, selector, value, e.opts.Pacing.KeystrokeDelay); err != nil {
		return &AuthenticationError{Step: "enter " + field, Err: err}
	}
	return e.dwell(ctx, e.opts.Pacing.TypeDwell)
}

// press clicks the first present control. A missing control is not fatal:
// some layouts submit on their own and the redirect check catches the rest.
func (e *Establisher) press(ctx context.Context, s browser.Session, name string, selectors []string, log zerolog.Logger) {
	selector, err := FirstMatch(ctx, present(s, selectors))
	if err != nil {
		log.Warn().Err(err).Str("control", name).Msg("control not found, skipping")
		return
	}
	if err := s.Click(ctx, selector, 0); err != nil {
		log.Warn().Err(err).Str("control", name).Msg("control click failed")
		return
	}
	log.Debug().Str("control", name).Str("selector", selector).Msg("control clicked")
}

func (e *Establisher) awaitRedirect(ctx context.Context, s browser.Session, creds Credentials) (string, error) {
	timeout := e.opts.Timeouts.LoginRedirect
	deadline := time.Now().Add(timeout)
	interval := min(redirectPollInterval, max(timeout/10, time.Millisecond))

	var current string
	for {
		u, err := s.URL(ctx)
		if err == nil {
			current = u
			if e.redirect.MatchString(u) {
				return u, nil
			}
		} else if ctx.Err() != nil {
			return "", &AuthenticationError{Step: "redirect", Err: ctx.Err()}
		}

		if !time.Now().Before(deadline) {
			break
		}
		if err := pause(ctx, interval); err != nil {
			return "", &AuthenticationError{Step: "redirect", Err: err}
		}
	}

	return "", &LoginTimeoutError{
		Pattern: e.redirect.String(),
		LastURL: creds.redact(current),
		Timeout: timeout,
		Snippet: creds.redact(pageSnippet(ctx, s)),
	}
}
