package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/entities"
)

// Snapshotter persists whole catalog snapshots.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, items []entities.LibraryItem) error
	LoadSnapshot(ctx context.Context) ([]entities.LibraryItem, error)
}

// PersistentStore is a MemoryStore whose snapshots are also written to a
// Snapshotter. A snapshot is only swapped in after it was saved, so a failed
// save leaves readers on the previous catalog.
type PersistentStore struct {
	*MemoryStore
	snapshots Snapshotter
	logger    zerolog.Logger
}

// NewPersistentStore restores the last saved snapshot into memory.
func NewPersistentStore(ctx context.Context, snapshots Snapshotter, logger zerolog.Logger) (*PersistentStore, error) {
	s := &PersistentStore{
		MemoryStore: NewMemoryStore(),
		snapshots:   snapshots,
		logger:      logger.With().Str("component", "catalog").Logger(),
	}

	items, err := snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}
	if err := s.MemoryStore.Replace(ctx, items); err != nil {
		return nil, err
	}
	s.logger.Info().Int("items", len(items)).Msg("catalog restored")
	return s, nil
}

func (s *PersistentStore) Replace(ctx context.Context, items []entities.LibraryItem) error {
	if err := s.snapshots.SaveSnapshot(ctx, items); err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}
	return s.MemoryStore.Replace(ctx, items)
}
