package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

// TargetSnapshot maps source book IDs to their existing target records.
type TargetSnapshot map[string]entities.TargetBook

// SourceSnapshot is the bulk source state gathered at the start of a run.
type SourceSnapshot struct {
	ShelfIDs    []string
	NotebookIDs []string
	Progress    map[string]weread.BookProgress
	Archive     map[string]string
}

// Snapshot is read-only once loaded.
type Snapshot struct {
	Source SourceSnapshot
	Target TargetSnapshot
}

// LoadSnapshot pulls the bookshelf, the notebook list and every existing
// target book record.
func LoadSnapshot(ctx context.Context, src Source, ws Workspace, log zerolog.Logger) (*Snapshot, error) {
	shelf, err := src.GetBookshelf(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookshelf: %w", err)
	}
	notebooks, err := src.GetNotebookBookIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notebooks: %w", err)
	}
	books, err := ws.QueryBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load target books: %w", err)
	}

	target := make(TargetSnapshot, len(books))
	for _, b := range books {
		if prev, ok := target[b.BookID]; ok {
			log.Warn().
				Str("book_id", b.BookID).
				Str("page_id", b.PageID).
				Str("kept_page_id", prev.PageID).
				Msg("duplicate target record, ignoring")
			continue
		}
		target[b.BookID] = b
	}

	snap := &Snapshot{
		Source: SourceSnapshot{
			ShelfIDs:    shelf.BookIDs(),
			NotebookIDs: notebooks,
			Progress:    shelf.ProgressByBook(),
			Archive:     shelf.ArchiveByBook(),
		},
		Target: target,
	}

	log.Info().
		Int("shelf", len(snap.Source.ShelfIDs)).
		Int("notebooks", len(notebooks)).
		Int("target", len(target)).
		Msg("snapshot loaded")
	return snap, nil
}
