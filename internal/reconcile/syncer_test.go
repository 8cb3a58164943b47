package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

func newLibrary() *fakeSource {
	src := newFakeSource()
	src.addBook("100", duneInfo(), finishedReadInfo())
	src.addBook("200", &weread.BookInfo{Title: "Piranesi", Author: "Susanna Clarke"}, &weread.ReadInfo{ReadingTime: 30})
	src.addBook("300", &weread.BookInfo{Title: "Ulysses", Cover: "https://c/s_u.jpg"}, &weread.ReadInfo{MarkedStatus: 3, ReadingTime: 900})
	src.shelf.Archive = []weread.Archive{{Name: "Sci-Fi", BookIDs: []string{"100"}}}
	src.notebooks = []string{"100"}
	return src
}

func TestSyncer_SecondRunWritesNothing(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	opts := Options{Catalog: &fakeCatalog{}, Location: shanghai, Logger: zerolog.Nop()}

	first, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 3, Processed: 3, BooksCreated: 3, SessionsCreated: 2}, first)
	writesAfterFirst := ws.writes

	src.detailCalls = 0
	second, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)
	assert.Equal(t, writesAfterFirst, ws.writes)
	assert.Zero(t, src.detailCalls)
}

func TestSyncer_ReprocessesDriftedBook(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	opts := Options{Location: shanghai, Logger: zerolog.Nop()}

	_, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)

	src.readInfos["200"].ReadingTime = 600
	src.readInfos["200"].ReadDetail = &weread.ReadDetail{Data: []weread.DailyRead{{ReadDate: day3, ReadTime: 570}}}
	src.shelf.BookProgress[1].ReadingTime = 600

	result, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Processed: 1, BooksUpdated: 1, SessionsCreated: 1}, result)

	book := ws.bookByID("200")
	assert.Equal(t, entities.StatusReading, book.last.Status)
	assert.Len(t, ws.bookOrder, 3, "no duplicate book records")
}

func TestSyncer_BookLeavingArchiveConverges(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	opts := Options{Location: shanghai, Logger: zerolog.Nop()}

	_, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Sci-Fi", ws.bookByID("100").target.Shelf)

	src.shelf.Archive = nil

	second, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Total: 1, Processed: 1, BooksUpdated: 1}, second)
	assert.Empty(t, ws.bookByID("100").target.Shelf)
	writesAfterSecond := ws.writes

	third, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, third)
	assert.Equal(t, writesAfterSecond, ws.writes)
}

func TestSyncer_UnknownSourceRatingConverges(t *testing.T) {
	src := newFakeSource()
	info := duneInfo()
	info.NewRatingDetail = &weread.RatingDetail{MyRating: "excellent"}
	src.addBook("100", info, finishedReadInfo())
	ws := newFakeWorkspace()
	opts := Options{Location: shanghai, Logger: zerolog.Nop()}

	_, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.RatingFair, ws.bookByID("100").target.MyRating)

	second, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)
}

func TestSyncer_ArchivedTargetIsSkipped(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	opts := Options{Location: shanghai, Logger: zerolog.Nop()}

	_, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)

	ws.bookByID("200").target.Archived = true
	src.shelf.BookProgress[1].ReadingTime = 999

	result, err := NewSyncer(src, ws, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
}

func TestSyncer_FailureAbortsRemainingBooks(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	ws.failCreate = errors.New("workspace unavailable")
	progress := &recordingProgress{}

	result, err := NewSyncer(src, ws, Options{Progress: progress, Logger: zerolog.Nop()}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ws.failCreate)
	assert.Contains(t, err.Error(), "merge book 100")

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, src.detailCalls, "remaining books are not fetched")
	assert.True(t, progress.completed)
	assert.Contains(t, progress.errorMsg, "workspace unavailable")
}

func TestSyncer_ReportsProgress(t *testing.T) {
	src := newLibrary()
	progress := &recordingProgress{}

	result, err := NewSyncer(src, newFakeWorkspace(), Options{Progress: progress, Logger: zerolog.Nop()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, progress.started)
	assert.Equal(t, []string{"100", "200", "300"}, progress.updates)
	assert.True(t, progress.completed)
	assert.Empty(t, progress.errorMsg)
	assert.Equal(t, result, progress.final)
}

func TestSyncer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSyncer(newLibrary(), newFakeWorkspace(), Options{Logger: zerolog.Nop()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDryRunWorkspace_WritesNothing(t *testing.T) {
	src := newLibrary()
	ws := newFakeWorkspace()
	dry := NewDryRunWorkspace(ws, zerolog.Nop())

	result, err := NewSyncer(src, dry, Options{Location: shanghai, Logger: zerolog.Nop()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.BooksCreated)
	assert.Equal(t, 2, result.SessionsCreated)
	assert.Zero(t, ws.writes)
	assert.Empty(t, ws.relations)
}

func TestDryRunWorkspace_ReadsPassThrough(t *testing.T) {
	ws := newFakeWorkspace()
	ws.sessions = []*storedSession{{pageID: "s1", bookPageID: "book-page", timestamp: day1, seconds: 60}}
	dry := NewDryRunWorkspace(ws, zerolog.Nop())

	sessions, err := dry.QuerySessions(context.Background(), "book-page")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	sessions, err = dry.QuerySessions(context.Background(), dryRunPrefix+"book-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
