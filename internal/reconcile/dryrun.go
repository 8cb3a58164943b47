package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlokans/readsync/internal/entities"
)

const dryRunPrefix = "dry-run-"

// DryRunWorkspace passes reads through to the wrapped workspace and logs
// writes instead of performing them. Created records get placeholder IDs.
type DryRunWorkspace struct {
	Workspace
	log zerolog.Logger
	seq int
}

func NewDryRunWorkspace(ws Workspace, log zerolog.Logger) *DryRunWorkspace {
	return &DryRunWorkspace{
		Workspace: ws,
		log:       log.With().Bool("dry_run", true).Logger(),
	}
}

func (d *DryRunWorkspace) placeholder(kind string) string {
	d.seq++
	return fmt.Sprintf("%s%s-%d", dryRunPrefix, kind, d.seq)
}

// QuerySessions returns nothing for placeholder pages.
func (d *DryRunWorkspace) QuerySessions(ctx context.Context, bookPageID string) ([]entities.TargetSession, error) {
	if strings.HasPrefix(bookPageID, dryRunPrefix) {
		return nil, nil
	}
	return d.Workspace.QuerySessions(ctx, bookPageID)
}

func (d *DryRunWorkspace) CreateBook(_ context.Context, page *entities.BookPage) (string, error) {
	id := d.placeholder("book")
	ev := d.log.Info().Str("page_id", id).Str("status", string(page.Status)).Float64("progress", page.Progress)
	if page.Creation != nil {
		ev = ev.Str("book_id", page.Creation.BookID).Str("title", page.Creation.Title)
	}
	ev.Msg("would create book")
	return id, nil
}

func (d *DryRunWorkspace) UpdateBook(_ context.Context, pageID string, page *entities.BookPage) error {
	d.log.Info().
		Str("page_id", pageID).
		Str("status", string(page.Status)).
		Float64("progress", page.Progress).
		Int64("reading_time", page.ReadingTime).
		Msg("would update book")
	return nil
}

func (d *DryRunWorkspace) CreateSession(_ context.Context, bookPageID string, s entities.ReadingSession) (string, error) {
	d.log.Info().
		Str("book_page_id", bookPageID).
		Str("day", s.Day.Format("2006-01-02")).
		Int64("seconds", s.Seconds).
		Msg("would create session")
	return d.placeholder("session"), nil
}

func (d *DryRunWorkspace) UpdateSession(_ context.Context, pageID, bookPageID string, s entities.ReadingSession) error {
	d.log.Info().
		Str("page_id", pageID).
		Str("book_page_id", bookPageID).
		Str("day", s.Day.Format("2006-01-02")).
		Int64("seconds", s.Seconds).
		Msg("would update session")
	return nil
}

// ResolveRelation never creates directory entries; every name maps to a
// stable placeholder.
func (d *DryRunWorkspace) ResolveRelation(_ context.Context, dir entities.Directory, name string) (string, error) {
	return fmt.Sprintf("%s%s-%s", dryRunPrefix, dir, name), nil
}
