package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

type fakeSource struct {
	shelf     weread.Bookshelf
	notebooks []string
	infos     map[string]*weread.BookInfo
	readInfos map[string]*weread.ReadInfo

	detailCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		infos:     make(map[string]*weread.BookInfo),
		readInfos: make(map[string]*weread.ReadInfo),
	}
}

// addBook registers a shelf book whose bulk progress matches its read info.
func (f *fakeSource) addBook(id string, info *weread.BookInfo, readInfo *weread.ReadInfo) {
	f.shelf.Books = append(f.shelf.Books, weread.ShelfBook{BookID: id, Title: info.Title})
	f.shelf.BookProgress = append(f.shelf.BookProgress, weread.BookProgress{BookID: id, ReadingTime: readInfo.ReadingTime})
	info.BookID = id
	f.infos[id] = info
	f.readInfos[id] = readInfo
}

func (f *fakeSource) GetBookshelf(context.Context) (*weread.Bookshelf, error) {
	shelf := f.shelf
	return &shelf, nil
}

func (f *fakeSource) GetNotebookBookIDs(context.Context) ([]string, error) {
	return f.notebooks, nil
}

func (f *fakeSource) GetBookInfo(_ context.Context, id string) (*weread.BookInfo, error) {
	f.detailCalls++
	info, ok := f.infos[id]
	if !ok {
		return nil, fmt.Errorf("book %s not found", id)
	}
	return info, nil
}

func (f *fakeSource) GetReadInfo(_ context.Context, id string) (*weread.ReadInfo, error) {
	info, ok := f.readInfos[id]
	if !ok {
		return nil, fmt.Errorf("read info %s not found", id)
	}
	return info, nil
}

// storedBook is what the fake workspace keeps for a book page, mirroring
// which properties the real adapter writes.
type storedBook struct {
	target   entities.TargetBook
	creation entities.BookCreationFields
	last     entities.BookPage
}

type storedSession struct {
	pageID     string
	bookPageID string
	timestamp  int64
	seconds    int64
}

type fakeWorkspace struct {
	books     map[string]*storedBook
	bookOrder []string
	sessions  []*storedSession
	relations map[string]string

	writes        int
	failCreate    error
	nextID        int
	sessionWrites []string
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		books:     make(map[string]*storedBook),
		relations: make(map[string]string),
	}
}

func (f *fakeWorkspace) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeWorkspace) QueryBooks(context.Context) ([]entities.TargetBook, error) {
	var out []entities.TargetBook
	for _, pageID := range f.bookOrder {
		out = append(out, f.books[pageID].target)
	}
	return out, nil
}

func (f *fakeWorkspace) QuerySessions(_ context.Context, bookPageID string) ([]entities.TargetSession, error) {
	var out []entities.TargetSession
	for _, s := range f.sessions {
		if s.bookPageID == bookPageID {
			out = append(out, entities.TargetSession{PageID: s.pageID, Timestamp: s.timestamp, Seconds: s.seconds})
		}
	}
	return out, nil
}

func (f *fakeWorkspace) apply(b *storedBook, page *entities.BookPage) {
	rt := page.ReadingTime
	b.target.ReadingTime = &rt
	b.target.Status = page.Status
	b.target.HasCover = page.CoverURL != ""
	b.target.Shelf = page.Shelf
	if page.MyRating != "" {
		b.target.MyRating = page.MyRating
	}
	b.last = *page
}

func (f *fakeWorkspace) CreateBook(_ context.Context, page *entities.BookPage) (string, error) {
	if f.failCreate != nil {
		return "", f.failCreate
	}
	if page.Creation == nil {
		return "", errors.New("create without creation fields")
	}
	f.writes++
	pageID := f.id("book")
	b := &storedBook{
		target:   entities.TargetBook{PageID: pageID, BookID: page.Creation.BookID, CatalogURL: page.Creation.CatalogURL},
		creation: *page.Creation,
	}
	f.apply(b, page)
	f.books[pageID] = b
	f.bookOrder = append(f.bookOrder, pageID)
	return pageID, nil
}

func (f *fakeWorkspace) UpdateBook(_ context.Context, pageID string, page *entities.BookPage) error {
	b, ok := f.books[pageID]
	if !ok {
		return fmt.Errorf("page %s not found", pageID)
	}
	f.writes++
	f.apply(b, page)
	return nil
}

func (f *fakeWorkspace) CreateSession(_ context.Context, bookPageID string, s entities.ReadingSession) (string, error) {
	f.writes++
	pageID := f.id("session")
	f.sessions = append(f.sessions, &storedSession{
		pageID:     pageID,
		bookPageID: bookPageID,
		timestamp:  s.Timestamp,
		seconds:    s.Seconds,
	})
	f.sessionWrites = append(f.sessionWrites, fmt.Sprintf("create %d", s.Timestamp))
	return pageID, nil
}

func (f *fakeWorkspace) UpdateSession(_ context.Context, pageID, _ string, s entities.ReadingSession) error {
	for _, stored := range f.sessions {
		if stored.pageID == pageID {
			f.writes++
			stored.seconds = s.Seconds
			f.sessionWrites = append(f.sessionWrites, fmt.Sprintf("update %d", s.Timestamp))
			return nil
		}
	}
	return fmt.Errorf("session %s not found", pageID)
}

func (f *fakeWorkspace) ResolveRelation(_ context.Context, dir entities.Directory, name string) (string, error) {
	key := string(dir) + "/" + name
	if id, ok := f.relations[key]; ok {
		return id, nil
	}
	id := f.id(string(dir))
	f.relations[key] = id
	return id, nil
}

// sessionsOf returns timestamp -> seconds for a book page.
func (f *fakeWorkspace) sessionsOf(bookPageID string) map[int64]int64 {
	out := make(map[int64]int64)
	for _, s := range f.sessions {
		if s.bookPageID == bookPageID {
			out[s.timestamp] = s.seconds
		}
	}
	return out
}

func (f *fakeWorkspace) bookByID(bookID string) *storedBook {
	for _, pageID := range f.bookOrder {
		if f.books[pageID].target.BookID == bookID {
			return f.books[pageID]
		}
	}
	return nil
}

type fakeCatalog struct {
	url   string
	err   error
	calls []string
}

func (f *fakeCatalog) LookupDoubanURL(_ context.Context, isbn string) (string, error) {
	f.calls = append(f.calls, isbn)
	return f.url, f.err
}

type recordingProgress struct {
	started   int
	updates   []string
	completed bool
	errorMsg  string
	final     Result
}

func (r *recordingProgress) StartSync(int) error {
	r.started++
	return nil
}

func (r *recordingProgress) UpdateProgress(_ Result, current string) error {
	if current != "" {
		r.updates = append(r.updates, current)
	}
	return nil
}

func (r *recordingProgress) CompleteSync(result Result, errorMsg string) error {
	r.completed = true
	r.errorMsg = errorMsg
	r.final = result
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
