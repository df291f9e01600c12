// Package scraper extracts the reader's library and annotations through an
// authenticated browser session.
package scraper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/notebook"
)

// Result is the outcome of one successful extraction.
type Result struct {
	Items       []entities.LibraryItem
	FailedItems int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// AnnotationCount sums the highlights of all items.
func (r *Result) AnnotationCount() int {
	total := 0
	for _, item := range r.Items {
		total += item.HighlightCount
	}
	return total
}

// Pipeline runs sign-in, library extraction and detail extraction in one
// browser session.
type Pipeline struct {
	opener  browser.Opener
	login   *Establisher
	library *LibraryExtractor
	details *DetailExtractor
	logger  zerolog.Logger
}

func NewPipeline(opener browser.Opener, sel notebook.Selectors, opts Options, logger zerolog.Logger) (*Pipeline, error) {
	login, err := NewEstablisher(sel, opts, logger)
	if err != nil {
		return nil, err
	}
	parser := notebook.NewParser(sel)
	return &Pipeline{
		opener:  opener,
		login:   login,
		library: NewLibraryExtractor(parser, opts, logger),
		details: NewDetailExtractor(parser, opts, logger),
		logger:  logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Run extracts the full catalog. The session is closed on every return path;
// cancelling ctx closes it immediately.
func (p *Pipeline) Run(ctx context.Context, creds Credentials) (*Result, error) {
	if err := creds.Validate(); err != nil {
		return nil, &AuthenticationError{Step: "credentials", Err: err}
	}

	started := time.Now().UTC()
	session, err := p.opener.Open(ctx)
	if err != nil {
		return nil, &AuthenticationError{Step: "open browser", Err: err}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = session.Close()
	})
	defer func() {
		stop()
		if err := session.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("browser session did not close cleanly")
		}
	}()

	if err := p.login.SignIn(ctx, session, creds); err != nil {
		return nil, err
	}

	items, err := p.library.Extract(ctx, session)
	if err != nil {
		return nil, err
	}

	items, failed, err := p.details.EnrichAll(ctx, session, items)
	if err != nil {
		return nil, &ExtractionError{Step: "details", Err: err}
	}

	result := &Result{
		Items:       items,
		FailedItems: failed,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
	}
	p.logger.Info().
		Int("items", len(items)).
		Int("failed", failed).
		Int("highlights", result.AnnotationCount()).
		Dur("took", result.FinishedAt.Sub(started)).
		Msg("extraction finished")
	return result, nil
}
