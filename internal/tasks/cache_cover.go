package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
)

// CoverFetcher downloads and stores a cover image.
type CoverFetcher interface {
	GetCover(ctx context.Context, itemID, coverURL string) (string, error)
}

// CacheCoverTask warms the cover cache for one catalog item.
type CacheCoverTask struct {
	ItemID   string `json:"item_id"`
	CoverURL string `json:"cover_url"`
}

func (t CacheCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cache_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CacheCoverProcessor creates a processor function for CacheCoverTask.
func CacheCoverProcessor(fetcher CoverFetcher, logger zerolog.Logger) backlite.QueueProcessor[CacheCoverTask] {
	return func(ctx context.Context, task CacheCoverTask) error {
		if fetcher == nil {
			return fmt.Errorf("cover fetcher not configured")
		}

		path, err := fetcher.GetCover(ctx, task.ItemID, task.CoverURL)
		if err != nil {
			return fmt.Errorf("cache cover for %s: %w", task.ItemID, err)
		}

		logger.Debug().Str("item", task.ItemID).Str("path", path).Msg("cover cached")
		return nil
	}
}

func NewCacheCoverQueue(fetcher CoverFetcher, logger zerolog.Logger) backlite.Queue {
	return backlite.NewQueue(CacheCoverProcessor(fetcher, logger))
}
