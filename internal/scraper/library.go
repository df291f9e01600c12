package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/notebook"
)

// LibraryExtractor reads the list of owned items from the library view.
type LibraryExtractor struct {
	parser *notebook.Parser
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

func NewLibraryExtractor(parser *notebook.Parser, opts Options, logger zerolog.Logger) *LibraryExtractor {
	return &LibraryExtractor{
		parser: parser,
		opts:   opts,
		logger: logger.With().Str("component", "library").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Extract returns the library items in document order with highlights unset.
// A library view that never renders an item yields an empty slice and a
// logged excerpt of the page, not an error.
func (x *LibraryExtractor) Extract(ctx context.Context, s browser.Session) ([]entities.LibraryItem, error) {
	if u := x.opts.Endpoints.LibraryURL; u != "" {
		if err := s.Navigate(ctx, u); err != nil {
			return nil, &ExtractionError{Step: "open library", Err: err}
		}
	}

	itemSelector := x.parser.Selectors().LibraryItem
	if err := s.WaitFor(ctx, itemSelector, x.opts.Timeouts.LibraryWait); err != nil {
		if !errors.Is(err, browser.ErrElementNotFound) {
			return nil, &ExtractionError{Step: "wait for library", Err: err}
		}
		x.logger.Warn().
			Str("selector", itemSelector).
			Dur("waited", x.opts.Timeouts.LibraryWait).
			Str("page", pageSnippet(ctx, s)).
			Msg("no library items rendered, returning an empty library")
		return []entities.LibraryItem{}, nil
	}

	if err := pause(ctx, x.opts.Pacing.LibrarySettle); err != nil {
		return nil, &ExtractionError{Step: "settle library", Err: err}
	}

	markup, err := s.HTML(ctx)
	if err != nil {
		return nil, &ExtractionError{Step: "read library", Err: err}
	}
	pageURL, err := s.URL(ctx)
	if err != nil {
		x.logger.Debug().Err(err).Msg("library url unavailable, cover urls stay relative")
	}

	items, warnings, err := x.parser.Library(markup, pageURL, x.now())
	if err != nil {
		return nil, &ExtractionError{Step: "parse library", Err: err}
	}
	for _, w := range warnings {
		x.logger.Warn().Int("position", w.Position).Str("reason", w.Reason).Msg("library item skipped")
	}

	x.logger.Info().Int("items", len(items)).Int("skipped", len(warnings)).Msg("library extracted")
	return items, nil
}
