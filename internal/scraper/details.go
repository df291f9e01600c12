package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/notebook"
)

// DetailExtractor reads the annotations of each library item.
type DetailExtractor struct {
	parser *notebook.Parser
	opts   Options
	logger zerolog.Logger
}

func NewDetailExtractor(parser *notebook.Parser, opts Options, logger zerolog.Logger) *DetailExtractor {
	return &DetailExtractor{
		parser: parser,
		opts:   opts,
		logger: logger.With().Str("component", "details").Logger(),
	}
}

// EnrichAll visits items one at a time, in order, and returns the enriched
// copies together with the number of items whose annotations could not be
// read. Those items carry no highlights. Only cancellation of ctx is
// returned as an error.
func (x *DetailExtractor) EnrichAll(ctx context.Context, s browser.Session, items []entities.LibraryItem) ([]entities.LibraryItem, int, error) {
	enriched := make([]entities.LibraryItem, 0, len(items))
	failed := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, failed, err
		}

		annotations, err := x.Enrich(ctx, s, item)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failed, ctx.Err()
			}
			x.logger.Warn().Err(err).
				Str("id", item.ID).
				Str("title", item.Title).
				Msg("detail extraction failed, keeping item without highlights")
			item.MarkEnrichFailed()
			failed++
		} else {
			item.SetHighlights(annotations)
		}
		enriched = append(enriched, item)
	}

	return enriched, failed, nil
}

// Enrich opens the detail view of item, reads its annotations and returns to
// the library view. The annotations are only returned when every step
// succeeded.
func (x *DetailExtractor) Enrich(ctx context.Context, s browser.Session, item entities.LibraryItem) ([]entities.Annotation, error) {
	selector, index := x.detailControl(item)
	if err := s.Click(ctx, selector, index); err != nil {
		return nil, fmt.Errorf("open details: %w", err)
	}
	if err := pause(ctx, x.opts.Pacing.DetailDwell); err != nil {
		return nil, err
	}

	markup, err := s.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read details: %w", err)
	}
	annotations, err := x.parser.Annotations(markup)
	if err != nil {
		return nil, err
	}

	if err := s.Back(ctx); err != nil {
		return nil, fmt.Errorf("return to library: %w", err)
	}
	if err := pause(ctx, x.opts.Pacing.BackDwell); err != nil {
		return nil, err
	}

	x.logger.Debug().Str("id", item.ID).Int("highlights", len(annotations)).Msg("item enriched")
	return annotations, nil
}

// detailControl picks the element to click: the container carrying the
// native id, or the container at the item's position when the id was
// generated.
func (x *DetailExtractor) detailControl(item entities.LibraryItem) (string, int) {
	sel := x.parser.Selectors()
	if item.NativeID {
		return fmt.Sprintf(`[%s="%s"]`, sel.ItemIDAttribute, cssEscape(item.ID)), 0
	}
	return sel.LibraryItem, item.Position
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
