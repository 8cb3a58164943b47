package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

// Merger writes source books and their reading sessions to the workspace.
// It is not safe for concurrent use.
type Merger struct {
	source  Source
	ws      Workspace
	catalog Catalog
	snap    *Snapshot
	loc     *time.Location
	log     zerolog.Logger

	stats Result
}

// NewMerger creates a merger over a loaded snapshot. catalog may be nil to
// disable enrichment.
func NewMerger(src Source, ws Workspace, catalog Catalog, snap *Snapshot, loc *time.Location, log zerolog.Logger) *Merger {
	if loc == nil {
		loc = time.UTC
	}
	return &Merger{
		source:  src,
		ws:      ws,
		catalog: catalog,
		snap:    snap,
		loc:     loc,
		log:     log,
	}
}

// Stats returns the write counters accumulated so far.
func (m *Merger) Stats() Result {
	return m.stats
}

// MergeBook fetches the book's detail, creates or updates its record and then
// merges its reading sessions. It returns the target page ID.
func (m *Merger) MergeBook(ctx context.Context, bookID string) (string, error) {
	info, err := m.source.GetBookInfo(ctx, bookID)
	if err != nil {
		return "", err
	}
	readInfo, err := m.source.GetReadInfo(ctx, bookID)
	if err != nil {
		return "", err
	}

	book := m.buildBook(bookID, info, readInfo)
	existing, exists := m.snap.Target[bookID]

	log := m.log.With().Str("book_id", bookID).Str("title", book.Title).Logger()

	page, err := m.bookPage(ctx, book, !exists, log)
	if err != nil {
		return "", err
	}

	var pageID string
	if exists {
		pageID = existing.PageID
		if err := m.ws.UpdateBook(ctx, pageID, page); err != nil {
			return "", err
		}
		m.stats.BooksUpdated++
		log.Info().Str("page_id", pageID).Str("status", string(book.Status)).Msg("updated book")
	} else {
		pageID, err = m.ws.CreateBook(ctx, page)
		if err != nil {
			return "", err
		}
		m.stats.BooksCreated++
		log.Info().Str("page_id", pageID).Str("status", string(book.Status)).Msg("created book")
	}

	sessions, err := m.MergeSessions(ctx, pageID, book.Sessions)
	if err != nil {
		return pageID, err
	}
	if sessions.Created+sessions.Updated > 0 {
		log.Info().
			Int("created", sessions.Created).
			Int("updated", sessions.Updated).
			Msg("merged reading sessions")
	}
	return pageID, nil
}

// buildBook folds the detail payloads into the canonical book. Fields of the
// book info embedded in the read info win over the standalone book info.
func (m *Merger) buildBook(bookID string, info *weread.BookInfo, readInfo *weread.ReadInfo) entities.Book {
	var base weread.BookInfo
	if info != nil {
		base = *info
	}
	var ri weread.ReadInfo
	if readInfo != nil {
		ri = readInfo.Resolved()
	}
	meta := base.Overlay(ri.BookInfo)

	status := deriveStatus(ri.MarkedStatus, ri.ReadingTime)
	date, start, end := activityWindow(ri, m.loc)

	return entities.Book{
		ID:           bookID,
		Title:        meta.Title,
		Authors:      strings.Fields(meta.Author),
		Categories:   meta.CategoryTitles(),
		ISBN:         strings.TrimSpace(meta.ISBN),
		Publisher:    meta.Publisher,
		CoverURL:     deriveCover(meta.Cover),
		Intro:        meta.Intro,
		Shelf:        m.snap.Source.Archive[bookID],
		MarkedStatus: ri.MarkedStatus,
		Status:       status,
		Progress:     deriveProgress(ri.MarkedStatus, ri.ReadingProgress),
		ReadingTime:  ri.ReadingTime,
		ReadingDays:  ri.TotalReadDay,
		PublicRating: derivePublicRating(meta.NewRating),
		MyRating:     deriveRating(meta.NewRatingDetail, status, ri.MarkedStatus),
		ActivityDate: date,
		WindowStart:  start,
		WindowEnd:    end,
		DeepLink:     weread.ReaderURL(bookID),
		Sessions:     ri.DailyReadTimes(),
	}
}

// bookPage builds the write payload. First-creation fields, including the
// catalog lookup and directory relations, are only computed for new books.
func (m *Merger) bookPage(ctx context.Context, book entities.Book, isNew bool, log zerolog.Logger) (*entities.BookPage, error) {
	page := &entities.BookPage{
		Status:       book.Status,
		Progress:     book.Progress,
		ReadingTime:  book.ReadingTime,
		ReadingDays:  book.ReadingDays,
		PublicRating: book.PublicRating,
		CoverURL:     book.CoverURL,
		Shelf:        book.Shelf,
		MyRating:     book.MyRating,
		ActivityDate: book.ActivityDate,
		WindowStart:  book.WindowStart,
		WindowEnd:    book.WindowEnd,
	}

	if book.ActivityDate != nil {
		var err error
		page.YearRef, err = m.ws.ResolveRelation(ctx, entities.DirectoryYear, book.ActivityDate.Format("2006"))
		if err != nil {
			return nil, err
		}
		page.MonthRef, err = m.ws.ResolveRelation(ctx, entities.DirectoryMonth, book.ActivityDate.Format("2006-01"))
		if err != nil {
			return nil, err
		}
	}

	if !isNew {
		return page, nil
	}

	publisher, ok := normalizePublisher(book.Publisher)
	if !ok {
		log.Warn().Msg("publisher missing, using placeholder")
	}

	creation := &entities.BookCreationFields{
		BookID:    book.ID,
		Title:     book.Title,
		DeepLink:  book.DeepLink,
		ISBN:      book.ISBN,
		Publisher: publisher,
		Intro:     book.Intro,
	}

	if m.catalog != nil && book.ISBN != "" {
		url, err := m.catalog.LookupDoubanURL(ctx, book.ISBN)
		if err != nil {
			log.Warn().Err(err).Str("isbn", book.ISBN).Msg("catalog lookup failed, continuing without link")
		}
		creation.CatalogURL = url
	}

	var err error
	if creation.AuthorRefs, err = m.resolveAll(ctx, entities.DirectoryAuthor, book.Authors); err != nil {
		return nil, err
	}
	if creation.CategoryRefs, err = m.resolveAll(ctx, entities.DirectoryCategory, book.Categories); err != nil {
		return nil, err
	}

	page.Creation = creation
	return page, nil
}

func (m *Merger) resolveAll(ctx context.Context, dir entities.Directory, names []string) ([]string, error) {
	var refs []string
	for _, name := range names {
		id, err := m.ws.ResolveRelation(ctx, dir, name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s %q: %w", dir, name, err)
		}
		if id != "" {
			refs = append(refs, id)
		}
	}
	return refs, nil
}
