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

// SyncRun is one pass of the mirror, kept in the local ledger.
type SyncRun struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Status          SyncStatus `gorm:"size:20;index" json:"status"`
	DryRun          bool       `json:"dry_run"`
	Ref             string     `gorm:"size:256" json:"ref,omitempty"`
	Repository      string     `gorm:"size:256" json:"repository,omitempty"`
	TotalItems      int        `json:"total_items"`
	Processed       int        `json:"processed"`
	BooksCreated    int        `json:"books_created"`
	BooksUpdated    int        `json:"books_updated"`
	SessionsCreated int        `json:"sessions_created"`
	SessionsUpdated int        `json:"sessions_updated"`
	CurrentItem     string     `gorm:"size:512" json:"current_item,omitempty"`
	Error           string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
