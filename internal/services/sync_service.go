package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/logging"
	"github.com/mrlokans/notebooksync/internal/scraper"
)

const syncAction = "notebook_sync"

var (
	// ErrSyncInProgress is returned when a sync is requested while another
	// one is still running.
	ErrSyncInProgress = errors.New("a sync is already in progress")

	// ErrInvalidRequest is returned for a sync request with missing credentials.
	ErrInvalidRequest = errors.New("invalid sync request")
)

// SyncRequest carries the transient credentials of one sync together with
// the caller details recorded in the audit trail.
type SyncRequest struct {
	Credentials scraper.Credentials
	IPAddress   string
	UserAgent   string
}

// SyncOutcome is what a successful sync committed to the catalog.
type SyncOutcome struct {
	Items       []entities.LibraryItem
	FailedItems int
	SyncedAt    time.Time
}

// SyncOptions are the optional collaborators of SyncService.
type SyncOptions struct {
	Runs    RunRecorder
	Auditor SyncAuditor
	Covers  CoverEnqueuer
	Timeout time.Duration
	Logger  zerolog.Logger
}

// SyncService runs at most one extraction at a time and commits its result
// to the catalog store. A failed extraction leaves the store untouched.
type SyncService struct {
	extractor Extractor
	store     catalog.Store
	opts      SyncOptions
	logger    zerolog.Logger

	running atomic.Bool
}

func NewSyncService(extractor Extractor, store catalog.Store, opts SyncOptions) *SyncService {
	return &SyncService{
		extractor: extractor,
		store:     store,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "sync").Logger(),
	}
}

// IsSyncing reports whether a sync is running.
func (s *SyncService) IsSyncing() bool {
	return s.running.Load()
}

// Sync extracts the catalog with req's credentials and replaces the store.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) (*SyncOutcome, error) {
	if err := req.Credentials.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	log := s.logger.With().Str("identifier", logging.MaskIdentifier(req.Credentials.Identifier)).Logger()
	log.Info().Msg("sync started")

	run := s.startRun(ctx)

	result, err := s.extractor.Run(ctx, req.Credentials)
	if err == nil {
		err = s.store.Replace(ctx, result.Items)
		if err != nil {
			err = fmt.Errorf("failed to replace catalog: %w", err)
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		s.failRun(run, err)
		s.audit(req, "Sync failed", audit.SyncRecord{Err: err})
		return nil, err
	}

	items, annotations := len(result.Items), result.AnnotationCount()
	s.completeRun(run, items, annotations, result.FailedItems)
	s.audit(req, fmt.Sprintf("Synced %d books with %d highlights", items, annotations), audit.SyncRecord{
		Items:       items,
		Annotations: annotations,
		FailedItems: result.FailedItems,
	})
	s.enqueueCovers(ctx, result.Items)

	log.Info().
		Int("items", items).
		Int("highlights", annotations).
		Int("failed", result.FailedItems).
		Msg("sync completed")

	return &SyncOutcome{
		Items:       result.Items,
		FailedItems: result.FailedItems,
		SyncedAt:    result.FinishedAt,
	}, nil
}

func (s *SyncService) startRun(ctx context.Context) *entities.SyncRun {
	if s.opts.Runs == nil {
		return nil
	}
	run, err := s.opts.Runs.Start(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record sync start")
		return nil
	}
	return run
}

// The run is finished on a fresh context: the sync context may be the one
// that just expired.
func (s *SyncService) completeRun(run *entities.SyncRun, items, annotations, failed int) {
	if run == nil {
		return
	}
	if err := s.opts.Runs.Complete(context.Background(), run, items, annotations, failed); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record sync completion")
	}
}

func (s *SyncService) failRun(run *entities.SyncRun, cause error) {
	if run == nil {
		return
	}
	if err := s.opts.Runs.Fail(context.Background(), run, cause.Error()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record sync failure")
	}
}

func (s *SyncService) audit(req SyncRequest, description string, rec audit.SyncRecord) {
	if s.opts.Auditor == nil {
		return
	}
	rec.IPAddress = req.IPAddress
	rec.UserAgent = req.UserAgent
	s.opts.Auditor.LogSync(syncAction, description, rec)
}

func (s *SyncService) enqueueCovers(ctx context.Context, items []entities.LibraryItem) {
	if s.opts.Covers == nil {
		return
	}
	n, err := s.opts.Covers.EnqueueCoverCaching(ctx, items)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to enqueue cover downloads")
		return
	}
	s.logger.Debug().Int("tasks", n).Msg("cover downloads enqueued")
}
