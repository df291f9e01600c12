package entities

import (
	"time"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRun records one attempt to extract the library.
type SyncRun struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Status          SyncStatus `gorm:"size:20;index" json:"status"`
	ItemCount       int        `json:"itemCount"`
	AnnotationCount int        `json:"annotationCount"`
	FailedItems     int        `json:"failedItems"`
	Error           string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt       time.Time  `gorm:"index" json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationMs      int64      `json:"durationMs"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
