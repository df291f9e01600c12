// Package catalog holds the process-wide catalog of library items. Readers
// always see one complete snapshot; Replace swaps the whole snapshot at once.
package catalog

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"github.com/mrlokans/notebooksync/internal/entities"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("catalog item not found")

// Store is the replace/query interface consumed by the sync service and the
// HTTP layer.
type Store interface {
	Replace(ctx context.Context, items []entities.LibraryItem) error
	All() []entities.LibraryItem
	Get(id string) (entities.LibraryItem, error)
	Stats() entities.CatalogStats
}

type snapshot struct {
	items []entities.LibraryItem
	index map[string]int
}

func newSnapshot(items []entities.LibraryItem) *snapshot {
	s := &snapshot{
		items: make([]entities.LibraryItem, len(items)),
		index: make(map[string]int, len(items)),
	}
	for i, item := range items {
		s.items[i] = item.Clone()
		if _, dup := s.index[item.ID]; !dup {
			s.index[item.ID] = i
		}
	}
	return s
}

// MemoryStore keeps the catalog behind an atomically swapped pointer. The
// stored items are private copies; every read returns copies too.
type MemoryStore struct {
	current atomic.Pointer[snapshot]
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.current.Store(newSnapshot(nil))
	return s
}

func (s *MemoryStore) Replace(_ context.Context, items []entities.LibraryItem) error {
	s.current.Store(newSnapshot(items))
	return nil
}

func (s *MemoryStore) All() []entities.LibraryItem {
	snap := s.current.Load()
	out := make([]entities.LibraryItem, len(snap.items))
	for i, item := range snap.items {
		out[i] = item.Clone()
	}
	return out
}

func (s *MemoryStore) Get(id string) (entities.LibraryItem, error) {
	snap := s.current.Load()
	i, ok := snap.index[id]
	if !ok {
		return entities.LibraryItem{}, ErrNotFound
	}
	return snap.items[i].Clone(), nil
}

func (s *MemoryStore) Stats() entities.CatalogStats {
	return ComputeStats(s.current.Load().items)
}

// ComputeStats aggregates items. The average is rounded to two decimals and
// the most highlighted item is the first one with the highest count.
func ComputeStats(items []entities.LibraryItem) entities.CatalogStats {
	stats := entities.CatalogStats{TotalBooks: len(items)}
	if len(items) == 0 {
		return stats
	}

	best := -1
	for i, item := range items {
		stats.TotalHighlights += item.HighlightCount
		if best < 0 || item.HighlightCount > items[best].HighlightCount {
			best = i
		}
	}

	avg := float64(stats.TotalHighlights) / float64(len(items))
	stats.AverageHighlightsPerBook = math.Round(avg*100) / 100

	top := items[best].Clone()
	stats.MostHighlightedBook = &top
	return stats
}
