package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/covers"
	catalogrepo "github.com/mrlokans/notebooksync/internal/database/catalog"
	"github.com/mrlokans/notebooksync/internal/database/syncruns"
	"github.com/mrlokans/notebooksync/internal/exporters"
	"github.com/mrlokans/notebooksync/internal/http"
	"github.com/mrlokans/notebooksync/internal/scheduler"
	"github.com/mrlokans/notebooksync/internal/scraper"
	"github.com/mrlokans/notebooksync/internal/services"
	"github.com/mrlokans/notebooksync/internal/tasks"
)

// =============================================================================
// Catalog
// =============================================================================

var _ catalog.Store = (*catalog.MemoryStore)(nil)
var _ catalog.Store = (*catalog.PersistentStore)(nil)
var _ catalog.Snapshotter = (*catalogrepo.Repository)(nil)

var _ exporters.CatalogExporter = (*exporters.MarkdownExporter)(nil)

// =============================================================================
// Extraction
// =============================================================================

var _ browser.Opener = (*browser.Launcher)(nil)
var _ browser.Session = (*browser.RodSession)(nil)
var _ services.Extractor = (*scraper.Pipeline)(nil)

// =============================================================================
// Sync bookkeeping
// =============================================================================

var _ services.RunRecorder = (*syncruns.Repository)(nil)
var _ services.SyncAuditor = (*audit.Service)(nil)
var _ services.CoverEnqueuer = (*tasks.Client)(nil)

// =============================================================================
// HTTP
// =============================================================================

var _ http.Syncer = (*services.SyncService)(nil)
var _ http.SyncHistory = (*syncruns.Repository)(nil)
var _ http.CoverSource = (*covers.Cache)(nil)

// =============================================================================
// Background work
// =============================================================================

var _ tasks.CoverFetcher = (*covers.Cache)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.CleanupEnqueuer = (*tasks.Client)(nil)
