package reconcile

import (
	"slices"
	"strings"
	"time"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

// Marked-complete flags reported by the source.
const (
	markedAbandoned = 3
	markedFinished  = 4
)

const (
	// startedThreshold is the reading time after which a book counts as started.
	startedThreshold = 60

	// DefaultCoverURL replaces an empty source cover.
	DefaultCoverURL = "https://www.notion.so/icons/book_gray.svg"

	unknownPublisher = "unknown"
)

var myRatings = map[string]entities.Rating{
	"good": entities.RatingGood,
	"fair": entities.RatingFair,
	"poor": entities.RatingPoor,
}

// Flag 1 has no branch of its own: it falls through to the reading-time rule.
func deriveStatus(marked int, readingTime int64) entities.ReadingStatus {
	switch {
	case marked == markedFinished:
		return entities.StatusFinished
	case marked == markedAbandoned:
		return entities.StatusAbandoned
	case readingTime >= startedThreshold:
		return entities.StatusReading
	default:
		return entities.StatusWantToRead
	}
}

func deriveProgress(marked int, readingProgress *int) float64 {
	if marked == markedFinished {
		return 1
	}
	if readingProgress == nil {
		return 0
	}
	return min(max(float64(*readingProgress)/100, 0), 1)
}

func deriveRating(detail *weread.RatingDetail, status entities.ReadingStatus, marked int) entities.Rating {
	// Unrecognised source values fall through to the derived tier; a
	// finished book must never be left without a rating.
	if detail != nil {
		if r, ok := myRatings[detail.MyRating]; ok {
			return r
		}
	}
	switch {
	case status == entities.StatusAbandoned:
		return entities.RatingPoor
	case marked == markedFinished:
		return entities.RatingFair
	}
	return ""
}

func derivePublicRating(newRating *int) *float64 {
	if newRating == nil {
		return nil
	}
	r := float64(*newRating) / 1000
	return &r
}

// deriveCover swaps the thumbnail size segment for the large variant. Only an
// empty cover falls back to the default.
func deriveCover(raw string) string {
	cover := strings.ReplaceAll(raw, "/s_", "/t7_")
	if cover == "" {
		return DefaultCoverURL
	}
	return cover
}

// normalizePublisher replaces the delimiters the workspace rejects in select
// and text values. ok is false when the publisher is absent or blank.
func normalizePublisher(publisher *string) (string, bool) {
	if publisher == nil {
		return unknownPublisher, false
	}
	p := strings.NewReplacer(",", " ", ".", " ").Replace(*publisher)
	p = strings.TrimSpace(p)
	if p == "" {
		return unknownPublisher, false
	}
	return p, true
}

// activityWindow picks the activity date from the first present of the
// finish, last-read, in-progress and begin dates. The window starts at the
// begin date when there is one and is ordered ascending.
func activityWindow(info weread.ReadInfo, loc *time.Location) (date, start, end *time.Time) {
	var ts *int64
	for _, candidate := range []*int64{
		info.FinishedDate,
		info.LastReadingDate,
		info.ReadingBookDate,
		info.BeginReadingDate,
	} {
		if candidate != nil && *candidate > 0 {
			ts = candidate
			break
		}
	}
	if ts == nil {
		return nil, nil, nil
	}

	d := time.Unix(*ts, 0).In(loc)
	window := []time.Time{d, d}
	if b := info.BeginReadingDate; b != nil && *b > 0 {
		window[0] = time.Unix(*b, 0).In(loc)
	}
	slices.SortFunc(window, func(a, b time.Time) int { return a.Compare(b) })
	return &d, &window[0], &window[1]
}
