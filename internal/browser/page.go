package browser

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a selector matched nothing in time.
var ErrElementNotFound = errors.New("element not found")

// InputInfo describes an <input> element, captured for diagnostics.
type InputInfo struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
}

// Session is an authenticated-or-not browsing context with exactly one active
// page. It is not safe for concurrent use: every call navigates or inspects
// the same page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)

	// WaitFor blocks until selector matches or timeout elapses, in which case
	// it returns an error wrapping ErrElementNotFound.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Exists reports whether selector matches right now.
	Exists(ctx context.Context, selector string) (bool, error)
	// TypeSlowly enters text into the first match one character at a time.
	TypeSlowly(ctx context.Context, selector, text string, delay time.Duration) error
	// Click clicks the index-th match of selector.
	Click(ctx context.Context, selector string, index int) error
	// WaitStable waits, at most timeout, for the DOM to stop changing.
	WaitStable(ctx context.Context, timeout time.Duration) error
	Inputs(ctx context.Context) ([]InputInfo, error)

	// Close releases the page and the browser behind it. It is idempotent.
	Close() error
}

// Opener creates sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}
