package entrypoint

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/config"
	"github.com/mrlokans/notebooksync/internal/database"
	catalogrepo "github.com/mrlokans/notebooksync/internal/database/catalog"
	"github.com/mrlokans/notebooksync/internal/notebook"
	"github.com/mrlokans/notebooksync/internal/scraper"
)

// ScraperOptions maps the process configuration onto pipeline options.
func ScraperOptions(cfg *config.Config) scraper.Options {
	return scraper.Options{
		Endpoints: scraper.Endpoints{
			HomeURL:    cfg.Notebook.HomeURL,
			SignInURL:  cfg.Notebook.SignInURL,
			URLPattern: cfg.Notebook.URLPattern,
			LibraryURL: cfg.Notebook.LibraryURL,
		},
		Timeouts: scraper.Timeouts{
			SelectorProbe: cfg.Timeouts.SelectorProbe,
			SecretField:   cfg.Timeouts.SecretField,
			LoginRedirect: cfg.Timeouts.LoginRedirect,
			LibraryWait:   cfg.Timeouts.LibraryWait,
		},
		Pacing: scraper.Pacing{
			KeystrokeDelay: cfg.Pacing.KeystrokeDelay,
			HomeDwell:      cfg.Pacing.HomeDwell,
			SignInDwell:    cfg.Pacing.SignInDwell,
			TypeDwell:      cfg.Pacing.TypeDwell,
			ContinueDwell:  cfg.Pacing.ContinueDwell,
			SubmitDwell:    cfg.Pacing.SubmitDwell,
			LibrarySettle:  cfg.Pacing.LibrarySettle,
			DetailDwell:    cfg.Pacing.DetailDwell,
			BackDwell:      cfg.Pacing.BackDwell,
		},
	}
}

// BrowserOptions maps the process configuration onto Chrome launch options.
func BrowserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Headless:  cfg.Browser.Headless,
		Bin:       cfg.Browser.Bin,
		RemoteURL: cfg.Browser.RemoteURL,
		NoSandbox: cfg.Browser.NoSandbox,
	}
}

// NewPipeline builds the extraction pipeline backed by a stealth Chrome
// launcher and the configured selector profile.
func NewPipeline(cfg *config.Config, logger zerolog.Logger) (*scraper.Pipeline, error) {
	sel, err := notebook.LoadSelectors(cfg.Notebook.SelectorsFile)
	if err != nil {
		return nil, err
	}
	launcher := browser.NewLauncher(BrowserOptions(cfg), browser.DefaultProfile(), logger)
	return scraper.NewPipeline(launcher, sel, ScraperOptions(cfg), logger)
}

// OpenCatalog returns the catalog store. With persistence enabled the last
// snapshot is loaded from db and every replace is written back.
func OpenCatalog(ctx context.Context, cfg *config.Config, db *database.Database, logger zerolog.Logger) (catalog.Store, error) {
	if !cfg.Database.PersistCatalog || db == nil {
		return catalog.NewMemoryStore(), nil
	}
	store, err := catalog.NewPersistentStore(ctx, catalogrepo.NewRepository(db.DB), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}
	return store, nil
}
