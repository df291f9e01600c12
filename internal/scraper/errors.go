package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/notebooksync/internal/browser"
)

// ErrAuthentication is matched by every error that means the session could
// not be authenticated.
var ErrAuthentication = errors.New("authentication failed")

// AuthenticationError is a sign-in failure that is neither a missing field
// nor a missing redirect, e.g. the browser could not be started or the
// sign-in page could not be loaded.
type AuthenticationError struct {
	Step string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed at %s: %v", e.Step, e.Err)
}

func (e *AuthenticationError) Unwrap() []error {
	return []error{ErrAuthentication, e.Err}
}

// SelectorNotFoundError reports that none of the candidate selectors for a
// sign-in field matched. Inputs and Snippet are captured for diagnosis and
// never contain the secret.
type SelectorNotFoundError struct {
	Field     string
	Attempted []string
	Inputs    []browser.InputInfo
	Snippet   string
}

func (e *SelectorNotFoundError) Error() string {
	inputs := make([]string, 0, len(e.Inputs))
	for _, in := range e.Inputs {
		inputs = append(inputs, fmt.Sprintf("{type=%q id=%q name=%q}", in.Type, in.ID, in.Name))
	}
	return fmt.Sprintf("authentication failed: %s field not found (tried %s; inputs on page: [%s])",
		e.Field, strings.Join(e.Attempted, ", "), strings.Join(inputs, " "))
}

func (e *SelectorNotFoundError) Unwrap() error {
	return ErrAuthentication
}

// LoginTimeoutError reports that the post-login redirect did not happen in
// time: wrong credentials, an added verification step or a changed layout.
type LoginTimeoutError struct {
	Pattern string
	LastURL string
	Timeout time.Duration
	Snippet string
}

func (e *LoginTimeoutError) Error() string {
	return fmt.Sprintf("authentication failed: no redirect matching %q within %s (last url %s)",
		e.Pattern, e.Timeout, e.LastURL)
}

func (e *LoginTimeoutError) Unwrap() error {
	return ErrAuthentication
}

// IsCredentialRejection reports whether err means the provider did not accept
// the credentials. Browser faults, cancellation and timeouts of the whole
// sync do not count.
func IsCredentialRejection(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var timeout *LoginTimeoutError
	return errors.As(err, &timeout)
}

// ExtractionError is a fatal failure of the library-level extraction step.
type ExtractionError struct {
	Step string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Step, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Diagnostics returns the diagnostic context carried by err, if any.
func Diagnostics(err error) (attempted []string, snippet string) {
	var notFound *SelectorNotFoundError
	if errors.As(err, &notFound) {
		return notFound.Attempted, notFound.Snippet
	}
	var timeout *LoginTimeoutError
	if errors.As(err, &timeout) {
		return nil, timeout.Snippet
	}
	return nil, ""
}
