// Package notion is the target-workspace adapter. It maps the mirror's book
// pages, reading sessions and directory relations onto Notion databases.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/mrlokans/readsync/internal/entities"
)

// ErrMissingDatabase is returned when a required database ID is not configured.
var ErrMissingDatabase = errors.New("notion database not configured")

const pageSize = 100

// Databases holds the IDs of the workspace databases. Books and Sessions are
// required; the directory databases are optional.
type Databases struct {
	Books      string
	Sessions   string
	Authors    string
	Categories string
	Years      string
	Months     string
}

func (d Databases) directory(dir entities.Directory) string {
	switch dir {
	case entities.DirectoryAuthor:
		return d.Authors
	case entities.DirectoryCategory:
		return d.Categories
	case entities.DirectoryYear:
		return d.Years
	case entities.DirectoryMonth:
		return d.Months
	}
	return ""
}

// NewClient creates an API client for the given integration token.
func NewClient(token string, httpClient *http.Client) *notionapi.Client {
	if httpClient == nil {
		return notionapi.NewClient(notionapi.Token(token))
	}
	return notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient))
}

// Workspace reads and writes mirror records in a Notion workspace.
type Workspace struct {
	client *notionapi.Client
	dbs    Databases
	schema Schema
	loc    *time.Location
	log    zerolog.Logger

	mu        sync.Mutex
	relations map[entities.Directory]map[string]string
}

// NewWorkspace requires the book and session databases; directories are optional.
func NewWorkspace(client *notionapi.Client, dbs Databases, schema Schema, loc *time.Location, log zerolog.Logger) (*Workspace, error) {
	if dbs.Books == "" {
		return nil, fmt.Errorf("%w: books", ErrMissingDatabase)
	}
	if dbs.Sessions == "" {
		return nil, fmt.Errorf("%w: sessions", ErrMissingDatabase)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Workspace{
		client:    client,
		dbs:       dbs,
		schema:    schema,
		loc:       loc,
		log:       log.With().Str("component", "notion").Logger(),
		relations: make(map[entities.Directory]map[string]string),
	}, nil
}

// QueryBooks returns every page of the book database. Pages without a book
// ID are skipped.
func (w *Workspace) QueryBooks(ctx context.Context) ([]entities.TargetBook, error) {
	pages, err := w.queryAll(ctx, w.dbs.Books, nil)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	books := make([]entities.TargetBook, 0, len(pages))
	for _, page := range pages {
		book := w.toTargetBook(page)
		if book.BookID == "" {
			w.log.Debug().Str("page_id", book.PageID).Msg("skipping page without book id")
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

// QuerySessions returns the session records related to the given book page.
func (w *Workspace) QuerySessions(ctx context.Context, bookPageID string) ([]entities.TargetSession, error) {
	filter := &notionapi.PropertyFilter{
		Property: w.schema.Session.Book,
		Relation: &notionapi.RelationFilterCondition{Contains: bookPageID},
	}
	pages, err := w.queryAll(ctx, w.dbs.Sessions, filter)
	if err != nil {
		return nil, fmt.Errorf("query sessions for %s: %w", bookPageID, err)
	}

	sessions := make([]entities.TargetSession, 0, len(pages))
	for _, page := range pages {
		if s, ok := w.toTargetSession(page); ok {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

func (w *Workspace) CreateBook(ctx context.Context, book *entities.BookPage) (string, error) {
	page, err := w.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(w.dbs.Books),
		},
		Properties: w.bookProperties(book),
		Icon:       externalIcon(book.CoverURL),
		Cover:      externalImage(book.CoverURL),
	})
	if err != nil {
		return "", fmt.Errorf("create book page: %w", err)
	}
	return page.ID.String(), nil
}

func (w *Workspace) UpdateBook(ctx context.Context, pageID string, book *entities.BookPage) error {
	_, err := w.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: w.bookProperties(book),
		Icon:       externalIcon(book.CoverURL),
		Cover:      externalImage(book.CoverURL),
	})
	if err != nil {
		return fmt.Errorf("update book page %s: %w", pageID, err)
	}
	return nil
}

func (w *Workspace) CreateSession(ctx context.Context, bookPageID string, session entities.ReadingSession) (string, error) {
	page, err := w.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(w.dbs.Sessions),
		},
		Properties: w.sessionProperties(bookPageID, session),
		Icon:       externalIcon(sessionIconURL),
	})
	if err != nil {
		return "", fmt.Errorf("create session %d: %w", session.Timestamp, err)
	}
	return page.ID.String(), nil
}

func (w *Workspace) UpdateSession(ctx context.Context, pageID, bookPageID string, session entities.ReadingSession) error {
	_, err := w.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: w.sessionProperties(bookPageID, session),
	})
	if err != nil {
		return fmt.Errorf("update session %s: %w", pageID, err)
	}
	return nil
}

// ResolveRelation returns the page ID of the named entry in a directory
// database, creating the entry when it does not exist. Results are cached
// for the lifetime of the Workspace. It returns "" when the directory is not
// configured.
func (w *Workspace) ResolveRelation(ctx context.Context, dir entities.Directory, name string) (string, error) {
	dbID := w.dbs.directory(dir)
	if dbID == "" || name == "" {
		return "", nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cache, ok := w.relations[dir]
	if !ok {
		cache = make(map[string]string)
		w.relations[dir] = cache
	}
	if id, ok := cache[name]; ok {
		return id, nil
	}

	titleProp := w.schema.DirectoryTitle
	resp, err := w.client.Database.Query(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: titleProp,
			RichText: &notionapi.TextFilterCondition{Equals: name},
		},
		PageSize: 1,
	})
	if err != nil {
		return "", fmt.Errorf("lookup %s %q: %w", dir, name, err)
	}
	if len(resp.Results) > 0 {
		id := resp.Results[0].ID.String()
		cache[name] = id
		return id, nil
	}

	page, err := w.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: notionapi.Properties{titleProp: titleProperty(name, "")},
		Icon:       externalIcon(directoryIcon(dir)),
	})
	if err != nil {
		return "", fmt.Errorf("create %s %q: %w", dir, name, err)
	}

	id := page.ID.String()
	cache[name] = id
	w.log.Debug().Str("directory", string(dir)).Str("name", name).Msg("created directory entry")
	return id, nil
}

func directoryIcon(dir entities.Directory) string {
	switch dir {
	case entities.DirectoryAuthor:
		return authorIconURL
	case entities.DirectoryCategory:
		return categoryIconURL
	}
	return dateIconURL
}

func (w *Workspace) queryAll(ctx context.Context, dbID string, filter notionapi.Filter) ([]notionapi.Page, error) {
	var (
		pages  []notionapi.Page
		cursor notionapi.Cursor
	)
	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    pageSize,
		}
		if filter != nil {
			req.Filter = filter
		}

		resp, err := w.client.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
