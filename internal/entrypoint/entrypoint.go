package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/audit"
	"github.com/mrlokans/notebooksync/internal/config"
	"github.com/mrlokans/notebooksync/internal/covers"
	"github.com/mrlokans/notebooksync/internal/database"
	auditrepo "github.com/mrlokans/notebooksync/internal/database/audit"
	"github.com/mrlokans/notebooksync/internal/database/syncruns"
	http_controllers "github.com/mrlokans/notebooksync/internal/http"
	"github.com/mrlokans/notebooksync/internal/scheduler"
	"github.com/mrlokans/notebooksync/internal/services"
	"github.com/mrlokans/notebooksync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs srv until ctx is cancelled, then shuts it down within timeout.
func Serve(ctx context.Context, srv *http.Server, timeout time.Duration, onShutdown ShutdownFunc, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", timeout).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info().Msg("server exited")
	return nil
}

// Run wires every component and serves the HTTP API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, version string, logger zerolog.Logger) error {
	logger.Info().Str("version", version).Msg("starting notebook sync")

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing database")
		}
	}()

	runs := syncruns.NewRepository(db.DB)
	if n, err := runs.MarkInterrupted(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to close interrupted sync runs")
	} else if n > 0 {
		logger.Info().Int64("runs", n).Msg("marked interrupted sync runs as failed")
	}

	auditor := audit.NewService(auditrepo.NewRepository(db.DB), logger)
	defer auditor.Wait()

	store, err := OpenCatalog(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	var coverCache *covers.Cache
	if cfg.Covers.Enabled {
		coverCache, err = covers.NewCache(cfg.Covers.Dir)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize cover cache")
		} else {
			logger.Info().Str("dir", cfg.Covers.Dir).Msg("cover cache initialized")
		}
	}

	var taskClient *tasks.Client
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	taskCtx, taskCancel := context.WithCancel(context.Background())
	defer taskCancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing task client")
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditor, logger))
		if coverCache != nil {
			taskClient.Register(tasks.NewCacheCoverQueue(coverCache, logger))
		}
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, logger)
		if err := cleanupScheduler.Start(taskCtx); err != nil {
			logger.Warn().Err(err).Msg("audit cleanup scheduler not started")
		}
	}

	pipeline, err := NewPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build extraction pipeline: %w", err)
	}

	syncOpts := services.SyncOptions{
		Runs:    runs,
		Auditor: auditor,
		Timeout: cfg.Timeouts.Sync,
		Logger:  logger,
	}
	if taskClient != nil && coverCache != nil {
		syncOpts.Covers = taskClient
	}
	syncService := services.NewSyncService(pipeline, store, syncOpts)

	routerCfg := http_controllers.RouterConfig{
		Catalog: store,
		Syncer:  syncService,
		History: runs,
		Version: version,
		Logger:  logger,

		CORSOrigins: cfg.HTTP.CORSOrigins,
	}
	if coverCache != nil {
		routerCfg.CoverCache = coverCache
	}
	if cfg.SignInLimit.Enabled {
		routerCfg.Limiter = http_controllers.NewSignInLimiter(http_controllers.SignInLimitConfig{
			MaxFailures: cfg.SignInLimit.MaxFailures,
			Window:      cfg.SignInLimit.Window,
			Lockout:     cfg.SignInLimit.Lockout,
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           http_controllers.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCancel()
		}
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	return Serve(ctx, srv, timeout, onShutdown, logger)
}
