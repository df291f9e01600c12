package services

import (
	"context"

	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/scraper"
)

// Extractor runs the browser extraction pipeline.
type Extractor interface {
	Run(ctx context.Context, creds scraper.Credentials) (*scraper.Result, error)
}

// RunRecorder keeps the history of sync attempts.
type RunRecorder interface {
	Start(ctx context.Context) (*entities.SyncRun, error)
	Complete(ctx context.Context, run *entities.SyncRun, items, annotations, failed int) error
	Fail(ctx context.Context, run *entities.SyncRun, message string) error
}

// SyncAuditor writes sync events to the audit trail.
type SyncAuditor interface {
	LogSync(action, description string, rec audit.SyncRecord)
}

// CoverEnqueuer schedules cover downloads for freshly synced items.
type CoverEnqueuer interface {
	EnqueueCoverCaching(ctx context.Context, items []entities.LibraryItem) (int, error)
}
