package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/database/audit"
	"github.com/mrlokans/notebooksync/internal/entities"
)

const maxErrorLen = 500

// SyncRecord summarises one sync attempt for the audit trail.
type SyncRecord struct {
	Items       int
	Annotations int
	FailedItems int
	IPAddress   string
	UserAgent   string
	Err         error
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogSync records a sync event.
func (s *Service) LogSync(action, description string, rec SyncRecord) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSync,
		Action:      action,
		Description: description,
		IPAddress:   rec.IPAddress,
		UserAgent:   truncate(rec.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"items":        rec.Items,
		"annotations":  rec.Annotations,
		"failed_items": rec.FailedItems,
	}
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}

	if rec.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(rec.Err.Error(), maxErrorLen)
	}

	s.LogAsync(event)
}

// LogCleanup records an audit retention cleanup.
func (s *Service) LogCleanup(deleted int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCleanup,
		Action:      "audit_cleanup",
		Description: "Removed expired audit events",
		Status:      entities.AuditStatusSuccess,
	}
	if mdBytes, mdErr := json.Marshal(map[string]any{"deleted": deleted}); mdErr == nil {
		event.Metadata = string(mdBytes)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), maxErrorLen)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
