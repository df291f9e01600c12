package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/scraper"
)

type fakeExtractor struct {
	result  *scraper.Result
	err     error
	release chan struct{}
	started chan struct{}
	calls   int
}

func (f *fakeExtractor) Run(ctx context.Context, _ scraper.Credentials) (*scraper.Result, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeRuns struct {
	mu        sync.Mutex
	started   int
	completed []int
	failed    []string
}

func (f *fakeRuns) Start(context.Context) (*entities.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return &entities.SyncRun{ID: uint(f.started)}, nil
}

func (f *fakeRuns) Complete(_ context.Context, _ *entities.SyncRun, items, annotations, failed int) error {
	f.completed = append(f.completed, items, annotations, failed)
	return nil
}

func (f *fakeRuns) Fail(_ context.Context, _ *entities.SyncRun, message string) error {
	f.failed = append(f.failed, message)
	return nil
}

type fakeAuditor struct {
	records []audit.SyncRecord
}

func (f *fakeAuditor) LogSync(_, _ string, rec audit.SyncRecord) {
	f.records = append(f.records, rec)
}

type fakeCovers struct {
	items []entities.LibraryItem
}

func (f *fakeCovers) EnqueueCoverCaching(_ context.Context, items []entities.LibraryItem) (int, error) {
	f.items = items
	return len(items), nil
}

type failingStore struct {
	*catalog.MemoryStore
}

func (failingStore) Replace(context.Context, []entities.LibraryItem) error {
	return errors.New("disk full")
}

var validRequest = SyncRequest{
	Credentials: scraper.Credentials{Identifier: "reader@example.com", Secret: "s3cret"},
	IPAddress:   "10.0.0.1",
}

func enriched(id string, highlights int) entities.LibraryItem {
	item := entities.LibraryItem{ID: id, Title: id}
	item.SetHighlights(make([]entities.Annotation, highlights))
	return item
}

func scenarioResult() *scraper.Result {
	b := entities.LibraryItem{ID: "B", Title: "B"}
	b.MarkEnrichFailed()
	return &scraper.Result{
		Items:       []entities.LibraryItem{enriched("A", 2), b, enriched("C", 5)},
		FailedItems: 1,
		FinishedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSyncService_Sync(t *testing.T) {
	t.Run("commits the extraction", func(t *testing.T) {
		store := catalog.NewMemoryStore()
		runs, auditor, covers := &fakeRuns{}, &fakeAuditor{}, &fakeCovers{}
		svc := NewSyncService(&fakeExtractor{result: scenarioResult()}, store, SyncOptions{
			Runs: runs, Auditor: auditor, Covers: covers, Logger: zerolog.Nop(),
		})

		outcome, err := svc.Sync(context.Background(), validRequest)
		require.NoError(t, err)

		assert.Len(t, outcome.Items, 3)
		assert.Equal(t, 1, outcome.FailedItems)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), outcome.SyncedAt)

		stats := store.Stats()
		assert.Equal(t, 3, stats.TotalBooks)
		assert.Equal(t, 7, stats.TotalHighlights)
		assert.Equal(t, 2.33, stats.AverageHighlightsPerBook)
		assert.Equal(t, "C", stats.MostHighlightedBook.ID)

		assert.Equal(t, []int{3, 7, 1}, runs.completed)
		require.Len(t, auditor.records, 1)
		assert.Equal(t, "10.0.0.1", auditor.records[0].IPAddress)
		assert.NoError(t, auditor.records[0].Err)
		assert.Len(t, covers.items, 3)
		assert.False(t, svc.IsSyncing())
	})

	t.Run("failure keeps the previous catalog", func(t *testing.T) {
		store := catalog.NewMemoryStore()
		require.NoError(t, store.Replace(context.Background(), []entities.LibraryItem{enriched("OLD", 1)}))
		runs, auditor := &fakeRuns{}, &fakeAuditor{}
		loginErr := &scraper.LoginTimeoutError{Pattern: "/notebook", Timeout: time.Second}
		svc := NewSyncService(&fakeExtractor{err: loginErr}, store, SyncOptions{
			Runs: runs, Auditor: auditor, Logger: zerolog.Nop(),
		})

		_, err := svc.Sync(context.Background(), validRequest)
		assert.ErrorIs(t, err, scraper.ErrAuthentication)

		all := store.All()
		require.Len(t, all, 1)
		assert.Equal(t, "OLD", all[0].ID)
		require.Len(t, runs.failed, 1)
		assert.NotContains(t, runs.failed[0], "s3cret")
		require.Len(t, auditor.records, 1)
		assert.Error(t, auditor.records[0].Err)
	})

	t.Run("store failure is a sync failure", func(t *testing.T) {
		runs := &fakeRuns{}
		svc := NewSyncService(&fakeExtractor{result: scenarioResult()}, failingStore{catalog.NewMemoryStore()}, SyncOptions{
			Runs: runs, Logger: zerolog.Nop(),
		})

		_, err := svc.Sync(context.Background(), validRequest)
		assert.ErrorContains(t, err, "disk full")
		assert.Len(t, runs.failed, 1)
	})

	t.Run("missing credentials", func(t *testing.T) {
		extractor := &fakeExtractor{result: scenarioResult()}
		svc := NewSyncService(extractor, catalog.NewMemoryStore(), SyncOptions{Logger: zerolog.Nop()})

		_, err := svc.Sync(context.Background(), SyncRequest{Credentials: scraper.Credentials{Identifier: "x"}})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Zero(t, extractor.calls)
	})

	t.Run("timeout cancels the extraction", func(t *testing.T) {
		extractor := &fakeExtractor{release: make(chan struct{})}
		svc := NewSyncService(extractor, catalog.NewMemoryStore(), SyncOptions{Timeout: 20 * time.Millisecond, Logger: zerolog.Nop()})

		_, err := svc.Sync(context.Background(), validRequest)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSyncService_RejectsConcurrentSync(t *testing.T) {
	extractor := &fakeExtractor{
		result:  scenarioResult(),
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := NewSyncService(extractor, catalog.NewMemoryStore(), SyncOptions{Logger: zerolog.Nop()})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background(), validRequest)
		done <- err
	}()

	<-extractor.started
	assert.True(t, svc.IsSyncing())

	_, err := svc.Sync(context.Background(), validRequest)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(extractor.release)
	require.NoError(t, <-done)
	assert.False(t, svc.IsSyncing())
	assert.Equal(t, 1, extractor.calls)
}
