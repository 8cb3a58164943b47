// Package database provides the local run ledger.
//
// The mirrored records themselves live in the target workspace; the sqlite
// file only keeps a history of sync runs and the progress of the current one.
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── runs/            # Sync run history and progress
//
// Usage:
//
//	db, err := database.NewDatabase("./readsync.db", log)
//	repo := runs.NewRepository(db.DB, runs.Meta{Ref: ref})
//	syncer := reconcile.NewSyncer(src, ws, reconcile.Options{Progress: repo})
package database
