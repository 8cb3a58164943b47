package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Result summarises a run.
type Result struct {
	Total           int
	Processed       int
	BooksCreated    int
	BooksUpdated    int
	SessionsCreated int
	SessionsUpdated int
}

// Options configures a Syncer. Zero values disable the catalog and the
// progress ledger and use UTC.
type Options struct {
	Catalog  Catalog
	Progress ProgressReporter
	Location *time.Location
	Logger   zerolog.Logger
}

// Syncer runs one reconciliation pass.
type Syncer struct {
	source   Source
	ws       Workspace
	catalog  Catalog
	progress ProgressReporter
	loc      *time.Location
	log      zerolog.Logger
}

func NewSyncer(src Source, ws Workspace, opts Options) *Syncer {
	s := &Syncer{
		source:   src,
		ws:       ws,
		catalog:  opts.Catalog,
		progress: opts.Progress,
		loc:      opts.Location,
		log:      opts.Logger,
	}
	if s.progress == nil {
		s.progress = nopProgress{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// Run loads the snapshots, filters the books that need work and merges them
// one by one. The first failure aborts the remaining books; records written
// before it stay valid for the next run.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	var result Result
	if err := s.progress.StartSync(0); err != nil {
		s.log.Warn().Err(err).Msg("failed to record run start")
	}

	snap, err := LoadSnapshot(ctx, s.source, s.ws, s.log)
	if err != nil {
		return result, s.fail(result, err)
	}

	ids := BooksNeedingSync(
		snap.Source.ShelfIDs,
		snap.Source.NotebookIDs,
		snap.Target,
		snap.Source.Progress,
		snap.Source.Archive,
	)
	result.Total = len(ids)
	s.report(result, "")
	s.log.Info().Int("books", len(ids)).Msg("books needing sync")

	merger := NewMerger(s.source, s.ws, s.catalog, snap, s.loc, s.log)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, s.fail(result, err)
		}

		s.log.Debug().Str("book_id", id).Int("n", i+1).Int("of", len(ids)).Msg("merging book")
		_, err := merger.MergeBook(ctx, id)
		result = withCounts(result, merger.Stats())
		if err != nil {
			return result, s.fail(result, fmt.Errorf("merge book %s: %w", id, err))
		}

		result.Processed = i + 1
		s.report(result, id)
	}

	if err := s.progress.CompleteSync(result, ""); err != nil {
		s.log.Warn().Err(err).Msg("failed to record run completion")
	}
	s.log.Info().
		Int("processed", result.Processed).
		Int("books_created", result.BooksCreated).
		Int("books_updated", result.BooksUpdated).
		Int("sessions_created", result.SessionsCreated).
		Int("sessions_updated", result.SessionsUpdated).
		Msg("sync finished")
	return result, nil
}

func withCounts(result, stats Result) Result {
	result.BooksCreated = stats.BooksCreated
	result.BooksUpdated = stats.BooksUpdated
	result.SessionsCreated = stats.SessionsCreated
	result.SessionsUpdated = stats.SessionsUpdated
	return result
}

func (s *Syncer) report(result Result, current string) {
	if err := s.progress.UpdateProgress(result, current); err != nil {
		s.log.Warn().Err(err).Msg("failed to record progress")
	}
}

func (s *Syncer) fail(result Result, err error) error {
	if perr := s.progress.CompleteSync(result, err.Error()); perr != nil {
		s.log.Warn().Err(perr).Msg("failed to record run failure")
	}
	return err
}
