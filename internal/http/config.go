package http

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/services"
)

// Syncer runs a catalog sync on behalf of the sync endpoint.
type Syncer interface {
	Sync(ctx context.Context, req services.SyncRequest) (*services.SyncOutcome, error)
	IsSyncing() bool
}

// SyncHistory lists recent sync attempts.
type SyncHistory interface {
	Recent(ctx context.Context, limit int) ([]entities.SyncRun, error)
}

// CoverSource resolves a locally cached cover image for an item.
type CoverSource interface {
	GetCover(ctx context.Context, itemID, coverURL string) (string, error)
}

// RouterConfig contains all dependencies needed to create the HTTP router.
// Syncer is required for POST /sync; History and CoverCache are optional and
// their endpoints answer 404/empty when nil. A nil Limiter disables sign-in
// lockouts. An empty CORSOrigins leaves CORS headers off.
type RouterConfig struct {
	Catalog    catalog.Store
	Syncer     Syncer
	History    SyncHistory
	CoverCache CoverSource
	Limiter    *SignInLimiter

	CORSOrigins []string
	Version     string
	Logger      zerolog.Logger
}
