// Package runs records sync runs in the local ledger.
//
// This package implements the ProgressReporter interface used by the syncer.
//
//	var _ reconcile.ProgressReporter = (*Repository)(nil)
package runs

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/reconcile"
)

var _ reconcile.ProgressReporter = (*Repository)(nil)

// ErrNoActiveRun is returned when progress is reported before StartSync.
var ErrNoActiveRun = errors.New("no active sync run")

// staleAfter is how long a running record may go without updates before it
// is considered interrupted.
const staleAfter = 10 * time.Minute

// Meta describes the environment a run was started from.
type Meta struct {
	DryRun     bool
	Ref        string
	Repository string
}

// Repository handles sync run database operations. Each StartSync opens a
// new run record that later calls update.
type Repository struct {
	db    *gorm.DB
	meta  Meta
	runID uint
	now   func() time.Time
}

func NewRepository(db *gorm.DB, meta Meta) *Repository {
	return &Repository{db: db, meta: meta, now: time.Now}
}

// StartSync closes runs left running by an interrupted process and opens a
// new run record.
func (r *Repository) StartSync(totalItems int) error {
	if err := r.failStale(); err != nil {
		return err
	}

	now := r.now()
	run := entities.SyncRun{
		Status:     entities.SyncStatusRunning,
		DryRun:     r.meta.DryRun,
		Ref:        r.meta.Ref,
		Repository: r.meta.Repository,
		TotalItems: totalItems,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.Create(&run).Error; err != nil {
		return err
	}
	r.runID = run.ID
	return nil
}

func (r *Repository) UpdateProgress(result reconcile.Result, currentItem string) error {
	if r.runID == 0 {
		return ErrNoActiveRun
	}
	updates := counters(result)
	updates["current_item"] = currentItem
	updates["updated_at"] = r.now()

	return r.db.Model(&entities.SyncRun{}).
		Where("id = ?", r.runID).
		Updates(updates).Error
}

// CompleteSync marks the current run completed, or failed when errorMsg is
// not empty.
func (r *Repository) CompleteSync(result reconcile.Result, errorMsg string) error {
	if r.runID == 0 {
		return ErrNoActiveRun
	}
	now := r.now()
	status := entities.SyncStatusCompleted
	if errorMsg != "" {
		status = entities.SyncStatusFailed
	}

	updates := counters(result)
	updates["status"] = status
	updates["current_item"] = ""
	updates["error"] = errorMsg
	updates["updated_at"] = now
	updates["completed_at"] = now

	return r.db.Model(&entities.SyncRun{}).
		Where("id = ?", r.runID).
		Updates(updates).Error
}

// Current returns the run opened by the last StartSync.
func (r *Repository) Current() (*entities.SyncRun, error) {
	if r.runID == 0 {
		return nil, ErrNoActiveRun
	}
	var run entities.SyncRun
	if err := r.db.First(&run, r.runID).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first.
func (r *Repository) Recent(limit int) ([]entities.SyncRun, error) {
	var runs []entities.SyncRun
	err := r.db.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *Repository) failStale() error {
	now := r.now()
	return r.db.Model(&entities.SyncRun{}).
		Where("status = ? AND updated_at < ?", entities.SyncStatusRunning, now.Add(-staleAfter)).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        "sync was interrupted",
			"current_item": "",
			"completed_at": now,
		}).Error
}

func counters(result reconcile.Result) map[string]any {
	return map[string]any{
		"total_items":      result.Total,
		"processed":        result.Processed,
		"books_created":    result.BooksCreated,
		"books_updated":    result.BooksUpdated,
		"sessions_created": result.SessionsCreated,
		"sessions_updated": result.SessionsUpdated,
	}
}
