package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrlokans/notebooksync/internal/browser"
)

// Strategy is one way of locating an element. Match returns nil on success.
type Strategy struct {
	Name  string
	Match func(ctx context.Context) error
}

// Attempt records a failed strategy.
type Attempt struct {
	Name string
	Err  error
}

// NoMatchError is returned by FirstMatch when every strategy failed.
type NoMatchError struct {
	Attempts []Attempt
}

func (e *NoMatchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Name, a.Err))
	}
	return "no strategy matched: " + strings.Join(parts, "; ")
}

// Names lists the attempted strategies in order.
func (e *NoMatchError) Names() []string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Name)
	}
	return names
}

// FirstMatch tries strategies in order and returns the name of the first one
// that succeeds. Cancellation of ctx stops the chain immediately.
func FirstMatch(ctx context.Context, strategies []Strategy) (string, error) {
	noMatch := &NoMatchError{}
	for _, st := range strategies {
		err := st.Match(ctx)
		if err == nil {
			return st.Name, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		noMatch.Attempts = append(noMatch.Attempts, Attempt{Name: st.Name, Err: err})
	}
	return "", noMatch
}

// waitFor builds strategies that each wait up to timeout for a selector.
func waitFor(s browser.Session, selectors []string, timeout time.Duration) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		strategies = append(strategies, Strategy{
			Name: sel,
			Match: func(ctx context.Context) error {
				return s.WaitFor(ctx, sel, timeout)
			},
		})
	}
	return strategies
}

// present builds strategies that check for a selector without waiting.
func present(s browser.Session, selectors []string) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		strategies = append(strategies, Strategy{
			Name: sel,
			Match: func(ctx context.Context) error {
				ok, err := s.Exists(ctx, sel)
				if err != nil {
					return err
				}
				if !ok {
					return browser.ErrElementNotFound
				}
				return nil
			},
		})
	}
	return strategies
}
