package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter creates the gin engine with every endpoint mounted both at the
// root and under /api.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeaders())
	if len(cfg.CORSOrigins) > 0 {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	logger := cfg.Logger.With().Str("component", "http").Logger()

	healthController := NewHealthController(cfg.Version)
	booksController := NewBooksController(cfg.Catalog, cfg.CoverCache, logger)

	var syncController *SyncController
	if cfg.Syncer != nil {
		syncController = NewSyncController(cfg.Syncer, cfg.History, cfg.Limiter, logger)
	}

	register := func(r gin.IRoutes) {
		r.GET("/health", healthController.Status)
		r.GET("/ping", healthController.Ping)

		r.GET("/books", booksController.GetAllBooks)
		r.GET("/books/:id", booksController.GetBook)
		r.GET("/books/:id/cover", booksController.GetCover)
		r.GET("/books/:id/markdown", booksController.GetMarkdown)
		r.GET("/stats", booksController.GetStats)

		if syncController != nil {
			r.POST("/sync", syncController.Sync)
			r.GET("/sync/status", syncController.Status)
			r.GET("/sync/history", syncController.History)
		}
	}

	register(router)
	register(router.Group("/api"))

	return router
}

// corsMiddleware answers preflight requests for the given origins. A lone "*"
// allows any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return cors.New(corsCfg)
}
