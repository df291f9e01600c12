// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Extraction
//
//   - browser.Opener / browser.Session: a browsing context the scraper drives
//     (internal/browser/page.go). RodSession is the Chrome implementation; tests
//     use an in-memory fake.
//   - services.Extractor: runs sign-in, library and detail extraction
//     (internal/services/interfaces.go). Implemented by scraper.Pipeline.
//
// ## Catalog
//
//   - catalog.Store: replace/all/get/stats over the current snapshot
//     (internal/catalog/store.go).
//   - catalog.Snapshotter: durable snapshot storage behind PersistentStore.
//
// ## Sync bookkeeping
//
//   - services.RunRecorder: sync run history (internal/database/syncruns).
//   - services.SyncAuditor: audit trail (internal/audit).
//   - services.CoverEnqueuer: background cover downloads (internal/tasks).
//
// ## HTTP
//
//   - http.Syncer, http.SyncHistory, http.CoverSource: what the controllers
//     need, defined next to them (internal/http/config.go).
//
// # Adding a Selector Profile
//
// Layout changes of the notebook are absorbed by a YAML profile rather than
// code. Print the defaults, edit them and point NOTEBOOK_SELECTORS_FILE at
// the result:
//
//	notebooksync selectors > selectors.yaml
//	NOTEBOOK_SELECTORS_FILE=selectors.yaml notebooksync serve
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add the record type to the AutoMigrate call in database.go
//
//  4. Add a compile-time check to checks.go:
//
//     var _ services.RunRecorder = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
