// Package reconcile decides which mirrored records are stale and merges
// source reading data into the target workspace.
//
// A run loads both snapshots once, computes the set of books that drifted
// from the target, and merges each of them sequentially:
//
//	syncer := reconcile.NewSyncer(source, workspace, reconcile.Options{...})
//	result, err := syncer.Run(ctx)
package reconcile

import (
	"context"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

// Source is the read-only reading service.
type Source interface {
	GetBookshelf(ctx context.Context) (*weread.Bookshelf, error)
	GetNotebookBookIDs(ctx context.Context) ([]string, error)
	GetBookInfo(ctx context.Context, bookID string) (*weread.BookInfo, error)
	GetReadInfo(ctx context.Context, bookID string) (*weread.ReadInfo, error)
}

// Workspace is the target store of book and session records.
type Workspace interface {
	QueryBooks(ctx context.Context) ([]entities.TargetBook, error)
	QuerySessions(ctx context.Context, bookPageID string) ([]entities.TargetSession, error)
	CreateBook(ctx context.Context, page *entities.BookPage) (string, error)
	UpdateBook(ctx context.Context, pageID string, page *entities.BookPage) error
	CreateSession(ctx context.Context, bookPageID string, session entities.ReadingSession) (string, error)
	UpdateSession(ctx context.Context, pageID, bookPageID string, session entities.ReadingSession) error
	ResolveRelation(ctx context.Context, dir entities.Directory, name string) (string, error)
}

// Catalog finds an external catalog page for an ISBN. An empty result with
// a nil error means no match.
type Catalog interface {
	LookupDoubanURL(ctx context.Context, isbn string) (string, error)
}

// ProgressReporter records the progress of a run.
type ProgressReporter interface {
	StartSync(totalItems int) error
	UpdateProgress(result Result, currentItem string) error
	CompleteSync(result Result, errorMsg string) error
}

type nopProgress struct{}

func (nopProgress) StartSync(int) error                 { return nil }
func (nopProgress) UpdateProgress(Result, string) error { return nil }
func (nopProgress) CompleteSync(Result, string) error   { return nil }
