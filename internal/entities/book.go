package entities

import (
	"time"
)

type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "want_to_read"
	StatusReading    ReadingStatus = "reading"
	StatusFinished   ReadingStatus = "finished"
	StatusAbandoned  ReadingStatus = "abandoned"
)

var statusLabels = map[ReadingStatus]string{
	StatusWantToRead: "Want to Read",
	StatusReading:    "Reading",
	StatusFinished:   "Finished",
	StatusAbandoned:  "Abandoned",
}

// Label returns the select option name used in the workspace.
func (s ReadingStatus) Label() string {
	return statusLabels[s]
}

// ParseStatusLabel maps a workspace select option back to a status.
// Unknown labels yield an empty status.
func ParseStatusLabel(label string) ReadingStatus {
	for status, l := range statusLabels {
		if l == label {
			return status
		}
	}
	return ""
}

// Rating is the personal rating tier, lowest to highest: poor, fair, good.
type Rating string

const (
	RatingPoor Rating = "poor"
	RatingFair Rating = "fair"
	RatingGood Rating = "good"
)

var ratingLabels = map[Rating]string{
	RatingPoor: "⭐️ Skip",
	RatingFair: "⭐️⭐️ Fair",
	RatingGood: "⭐️⭐️⭐️ Recommended",
}

func (r Rating) Label() string {
	return ratingLabels[r]
}

// Valid reports whether r is one of the known tiers.
func (r Rating) Valid() bool {
	_, ok := ratingLabels[r]
	return ok
}

func ParseRatingLabel(label string) Rating {
	for rating, l := range ratingLabels {
		if l == label {
			return rating
		}
	}
	return ""
}

// Book is the canonical form of a source book after all payloads are merged.
type Book struct {
	ID           string
	Title        string
	Authors      []string
	Categories   []string
	ISBN         string
	Publisher    *string
	CoverURL     string
	Intro        string
	Shelf        string
	MarkedStatus int
	Status       ReadingStatus
	Progress     float64 // 0.0-1.0
	ReadingTime  int64   // seconds
	ReadingDays  int
	PublicRating *float64
	MyRating     Rating
	ActivityDate *time.Time
	WindowStart  *time.Time
	WindowEnd    *time.Time
	CatalogURL   string
	DeepLink     string

	// Sessions maps the unix timestamp of a reading day to seconds read that day.
	Sessions map[int64]int64
}

// ReadingSession is one day of reading for a book.
type ReadingSession struct {
	Timestamp int64     // unix seconds at the start of the day
	Day       time.Time // Timestamp in the configured zone
	Seconds   int64
}

// TargetBook is the projection of an existing workspace book record that the
// change filter needs.
type TargetBook struct {
	PageID      string
	BookID      string
	ReadingTime *int64
	Shelf       string
	HasCover    bool
	Status      ReadingStatus
	MyRating    Rating
	Archived    bool
	CatalogURL  string
}

// TargetSession is an existing reading-session record in the workspace.
type TargetSession struct {
	PageID    string
	Timestamp int64
	Seconds   int64
}

// BookPage is the property set written to a workspace book record.
// Empty optional values are left out of the write.
type BookPage struct {
	Status       ReadingStatus
	Progress     float64
	ReadingTime  int64
	ReadingDays  int
	PublicRating *float64
	CoverURL     string
	Shelf        string
	MyRating     Rating
	ActivityDate *time.Time
	WindowStart  *time.Time
	WindowEnd    *time.Time
	YearRef      string
	MonthRef     string

	// Creation is only set when the record is created; user edits made in the
	// workspace to these fields survive later runs.
	Creation *BookCreationFields
}

type BookCreationFields struct {
	BookID       string
	Title        string
	DeepLink     string
	ISBN         string
	Publisher    string
	Intro        string
	CatalogURL   string
	AuthorRefs   []string
	CategoryRefs []string
}

// Directory names a workspace database of tag-like entries that book records
// link to.
type Directory string

const (
	DirectoryAuthor   Directory = "author"
	DirectoryCategory Directory = "category"
	DirectoryYear     Directory = "year"
	DirectoryMonth    Directory = "month"
)
