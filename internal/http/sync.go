package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/scraper"
	"github.com/mrlokans/notebooksync/internal/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// SyncRequest is the body of POST /sync. The credentials live only for the
// duration of the request.
type SyncRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// SyncResponse is the body of a successful POST /sync.
type SyncResponse struct {
	Success     bool                   `json:"success"`
	ItemCount   int                    `json:"itemCount"`
	FailedItems int                    `json:"failedItems"`
	Items       []entities.LibraryItem `json:"items"`
	SyncedAt    time.Time              `json:"syncedAt"`
}

type SyncController struct {
	syncer  Syncer
	history SyncHistory
	limiter *SignInLimiter
	logger  zerolog.Logger
}

// NewSyncController creates a SyncController. A nil limiter disables
// lockouts after repeated authentication failures.
func NewSyncController(syncer Syncer, history SyncHistory, limiter *SignInLimiter, logger zerolog.Logger) *SyncController {
	return &SyncController{
		syncer:  syncer,
		history: history,
		limiter: limiter,
		logger:  logger,
	}
}

// Sync runs the extraction pipeline synchronously and replaces the catalog.
// POST /sync
func (sc *SyncController) Sync(c *gin.Context) {
	var body SyncRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "request body must be JSON with identifier and secret")
		return
	}
	if strings.TrimSpace(body.Identifier) == "" || body.Secret == "" {
		respondBadRequest(c, "identifier and secret are required")
		return
	}

	ip := c.ClientIP()
	if sc.limiter != nil {
		if allowed, retryAfter := sc.limiter.Allow(ip, body.Identifier); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			respondError(c, http.StatusTooManyRequests, "too many failed sign-in attempts")
			return
		}
	}

	outcome, err := sc.syncer.Sync(c.Request.Context(), services.SyncRequest{
		Credentials: scraper.Credentials{Identifier: body.Identifier, Secret: body.Secret},
		IPAddress:   ip,
		UserAgent:   c.Request.UserAgent(),
	})
	sc.recordAttempt(ip, body.Identifier, err)

	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidRequest):
		respondBadRequest(c, "identifier and secret are required")
		return
	case errors.Is(err, services.ErrSyncInProgress):
		respondError(c, http.StatusConflict, err.Error())
		return
	case errors.Is(err, scraper.ErrAuthentication):
		respondInternalError(c, sc.logger, "authentication failed", err)
		return
	default:
		respondInternalError(c, sc.logger, "failed to sync notebook", err)
		return
	}

	items := outcome.Items
	if items == nil {
		items = []entities.LibraryItem{}
	}
	c.IndentedJSON(http.StatusOK, SyncResponse{
		Success:     true,
		ItemCount:   len(items),
		FailedItems: outcome.FailedItems,
		Items:       items,
		SyncedAt:    outcome.SyncedAt,
	})
}

func (sc *SyncController) recordAttempt(ip, identifier string, err error) {
	if sc.limiter == nil {
		return
	}
	switch {
	case err == nil:
		sc.limiter.RecordSuccess(ip, identifier)
	case scraper.IsCredentialRejection(err):
		if locked, lockout := sc.limiter.RecordFailure(ip, identifier); locked {
			sc.logger.Warn().Str("ip", ip).Dur("lockout", lockout).Msg("sync locked out after repeated sign-in failures")
		}
	}
}

// Status reports whether a sync is running.
// GET /sync/status
func (sc *SyncController) Status(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"syncing": sc.syncer.IsSyncing()})
}

// History lists the most recent sync attempts, newest first.
// GET /sync/history?limit=N
func (sc *SyncController) History(c *gin.Context) {
	limit, ok := parseLimit(c, "limit", defaultHistoryLimit, maxHistoryLimit)
	if !ok {
		return
	}

	runs := []entities.SyncRun{}
	if sc.history != nil {
		recent, err := sc.history.Recent(c.Request.Context(), limit)
		if err != nil {
			respondInternalError(c, sc.logger, "failed to load sync history", err)
			return
		}
		if recent != nil {
			runs = recent
		}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}
