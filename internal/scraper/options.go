package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/notebooksync/internal/logging"
)

// Credentials are the sign-in pair for one sync. They only live for the
// duration of the call that received them.
type Credentials struct {
	Identifier string
	Secret     string
}

// Validate reports which fields are missing.
func (c Credentials) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Identifier) == "" {
		errs = append(errs, errors.New("identifier is required"))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("secret is required"))
	}
	return errors.Join(errs...)
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Identifier: %s, Secret: [redacted]}", logging.MaskIdentifier(c.Identifier))
}

func (c Credentials) GoString() string {
	return c.String()
}

// redact replaces both credential values in s, including their URL-escaped
// forms as they appear in query strings and paths.
func (c Credentials) redact(s string) string {
	if c.Secret != "" {
		s = replaceEncoded(s, c.Secret, "[redacted]")
	}
	if c.Identifier != "" {
		s = replaceEncoded(s, c.Identifier, logging.MaskIdentifier(c.Identifier))
	}
	return s
}

func replaceEncoded(s, value, with string) string {
	for _, form := range []string{url.QueryEscape(value), url.PathEscape(value), value} {
		s = strings.ReplaceAll(s, form, with)
	}
	return s
}

// Endpoints are the pages the pipeline visits.
type Endpoints struct {
	HomeURL    string
	SignInURL  string
	URLPattern string // regular expression matched against the post-login URL
	LibraryURL string // empty keeps the page reached after sign-in
}

// Timeouts bound every wait of the pipeline.
type Timeouts struct {
	SelectorProbe time.Duration
	SecretField   time.Duration
	LoginRedirect time.Duration
	LibraryWait   time.Duration
}

// Pacing holds the fixed dwell periods between steps.
type Pacing struct {
	KeystrokeDelay time.Duration
	HomeDwell      time.Duration
	SignInDwell    time.Duration
	TypeDwell      time.Duration
	ContinueDwell  time.Duration
	SubmitDwell    time.Duration
	LibrarySettle  time.Duration
	DetailDwell    time.Duration
	BackDwell      time.Duration
}

type Options struct {
	Endpoints Endpoints
	Timeouts  Timeouts
	Pacing    Pacing
}
