// Package syncruns records every attempt to extract the library.
package syncruns

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/notebooksync/internal/entities"
)

const defaultLimit = 20

// Repository handles sync run database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Start creates a running record.
func (r *Repository) Start(ctx context.Context) (*entities.SyncRun, error) {
	run := &entities.SyncRun{
		Status:    entities.SyncStatusRunning,
		StartedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Complete marks run as completed with the extraction totals.
func (r *Repository) Complete(ctx context.Context, run *entities.SyncRun, items, annotations, failed int) error {
	run.Status = entities.SyncStatusCompleted
	run.ItemCount = items
	run.AnnotationCount = annotations
	run.FailedItems = failed
	r.finish(run)
	return r.db.WithContext(ctx).Save(run).Error
}

// Fail marks run as failed. message must not contain credentials.
func (r *Repository) Fail(ctx context.Context, run *entities.SyncRun, message string) error {
	run.Status = entities.SyncStatusFailed
	run.Error = message
	r.finish(run)
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *Repository) finish(run *entities.SyncRun) {
	now := r.now().UTC()
	run.CompletedAt = &now
	run.DurationMs = now.Sub(run.StartedAt).Milliseconds()
}

// Recent returns the latest runs, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.SyncRun, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	var runs []entities.SyncRun
	err := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// LastCompleted returns the newest completed run, or nil if there is none.
func (r *Repository) LastCompleted(ctx context.Context) (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.SyncStatusCompleted).
		Order("started_at DESC, id DESC").
		First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkInterrupted fails every run still marked running, e.g. after a crash.
func (r *Repository) MarkInterrupted(ctx context.Context) (int64, error) {
	now := r.now().UTC()
	result := r.db.WithContext(ctx).Model(&entities.SyncRun{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        "interrupted",
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}
