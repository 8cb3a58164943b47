package weread

import "strings"

// Bookshelf is the response of the shelf sync endpoint.
type Bookshelf struct {
	Books        []ShelfBook    `json:"books"`
	BookProgress []BookProgress `json:"bookProgress"`
	Archive      []Archive      `json:"archive"`
}

type ShelfBook struct {
	BookID string `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

// BookProgress is the cheap per-book progress snapshot included in the shelf.
type BookProgress struct {
	BookID      string `json:"bookId"`
	Progress    int    `json:"progress"`
	ChapterUID  int    `json:"chapterUid"`
	ReadingTime int64  `json:"readingTime"`
	UpdateTime  int64  `json:"updateTime"`
}

// Archive is a user-defined shelf folder.
type Archive struct {
	ArchiveID int      `json:"archiveId"`
	Name      string   `json:"name"`
	BookIDs   []string `json:"bookIds"`
}

// ProgressByBook indexes the shelf progress entries by book ID.
func (s *Bookshelf) ProgressByBook() map[string]BookProgress {
	progress := make(map[string]BookProgress, len(s.BookProgress))
	for _, p := range s.BookProgress {
		if p.BookID == "" {
			continue
		}
		progress[p.BookID] = p
	}
	return progress
}

// ArchiveByBook maps each archived book ID to its folder name.
// A book listed in several folders keeps the last one.
func (s *Bookshelf) ArchiveByBook() map[string]string {
	archive := make(map[string]string)
	for _, a := range s.Archive {
		for _, id := range a.BookIDs {
			archive[id] = a.Name
		}
	}
	return archive
}

// BookIDs lists the IDs of the shelf books, skipping entries without one.
func (s *Bookshelf) BookIDs() []string {
	ids := make([]string, 0, len(s.Books))
	for _, b := range s.Books {
		if b.BookID != "" {
			ids = append(ids, b.BookID)
		}
	}
	return ids
}

type Category struct {
	CategoryID    int    `json:"categoryId"`
	SubCategoryID int    `json:"subCategoryId"`
	CategoryType  int    `json:"categoryType"`
	Title         string `json:"title"`
}

type RatingDetail struct {
	MyRating string `json:"myRating"`
}

// BookInfo is the detailed book metadata.
type BookInfo struct {
	BookID          string        `json:"bookId"`
	Title           string        `json:"title"`
	Author          string        `json:"author"`
	Cover           string        `json:"cover"`
	Intro           string        `json:"intro"`
	ISBN            string        `json:"isbn"`
	Publisher       *string       `json:"publisher"`
	Category        string        `json:"category"`
	Categories      []Category    `json:"categories"`
	NewRating       *int          `json:"newRating"`
	NewRatingDetail *RatingDetail `json:"newRatingDetail"`
}

// Overlay returns b with every non-empty field of o applied on top.
func (b BookInfo) Overlay(o *BookInfo) BookInfo {
	if o == nil {
		return b
	}
	if o.BookID != "" {
		b.BookID = o.BookID
	}
	if o.Title != "" {
		b.Title = o.Title
	}
	if o.Author != "" {
		b.Author = o.Author
	}
	if o.Cover != "" {
		b.Cover = o.Cover
	}
	if o.Intro != "" {
		b.Intro = o.Intro
	}
	if o.ISBN != "" {
		b.ISBN = o.ISBN
	}
	if o.Publisher != nil {
		b.Publisher = o.Publisher
	}
	if o.Category != "" {
		b.Category = o.Category
	}
	if len(o.Categories) > 0 {
		b.Categories = o.Categories
	}
	if o.NewRating != nil {
		b.NewRating = o.NewRating
	}
	if o.NewRatingDetail != nil {
		b.NewRatingDetail = o.NewRatingDetail
	}
	return b
}

// CategoryTitles returns the non-blank category titles in order.
func (b BookInfo) CategoryTitles() []string {
	var titles []string
	for _, c := range b.Categories {
		if t := strings.TrimSpace(c.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

type DailyRead struct {
	ReadDate int64 `json:"readDate"`
	ReadTime int64 `json:"readTime"`
}

// ReadDetail carries the per-day reading log. Some accounts report the
// reading dates here rather than at the top level of ReadInfo.
type ReadDetail struct {
	TotalReadDay     int         `json:"totalReadDay"`
	BeginReadingDate *int64      `json:"beginReadingDate"`
	LastReadingDate  *int64      `json:"lastReadingDate"`
	Data             []DailyRead `json:"data"`
}

// ReadInfo is the per-book reading state.
type ReadInfo struct {
	MarkedStatus     int         `json:"markedStatus"`
	ReadingTime      int64       `json:"readingTime"`
	TotalReadDay     int         `json:"totalReadDay"`
	ReadingProgress  *int        `json:"readingProgress"`
	FinishedDate     *int64      `json:"finishedDate"`
	LastReadingDate  *int64      `json:"lastReadingDate"`
	ReadingBookDate  *int64      `json:"readingBookDate"`
	BeginReadingDate *int64      `json:"beginReadingDate"`
	ReadDetail       *ReadDetail `json:"readDetail"`
	BookInfo         *BookInfo   `json:"bookInfo"`
}

// Resolved folds ReadDetail over the top-level fields; values present in
// ReadDetail win.
func (r ReadInfo) Resolved() ReadInfo {
	if r.ReadDetail == nil {
		return r
	}
	d := r.ReadDetail
	if d.TotalReadDay != 0 {
		r.TotalReadDay = d.TotalReadDay
	}
	if d.BeginReadingDate != nil {
		r.BeginReadingDate = d.BeginReadingDate
	}
	if d.LastReadingDate != nil {
		r.LastReadingDate = d.LastReadingDate
	}
	return r
}

// DailyReadTimes maps each reading day timestamp to seconds read.
func (r ReadInfo) DailyReadTimes() map[int64]int64 {
	times := make(map[int64]int64)
	if r.ReadDetail == nil {
		return times
	}
	for _, d := range r.ReadDetail.Data {
		times[d.ReadDate] = d.ReadTime
	}
	return times
}

type notebookResponse struct {
	Books []struct {
		BookID string `json:"bookId"`
	} `json:"books"`
}

// errorEnvelope is decoded from every response to detect body-level errors.
type errorEnvelope struct {
	ErrCode *int   `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}
