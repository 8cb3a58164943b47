package reconcile

import (
	"slices"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/weread"
)

// BooksNeedingSync returns the sorted IDs of notebook and shelf books whose
// target record is missing or has drifted from the cheap bulk source data.
// Target records flagged as archived are never returned.
func BooksNeedingSync(
	shelfIDs, notebookIDs []string,
	target TargetSnapshot,
	progress map[string]weread.BookProgress,
	archive map[string]string,
) []string {
	excluded := make(map[string]bool, len(target))
	for id, book := range target {
		if book.Archived || upToDate(id, book, progress, archive) {
			excluded[id] = true
		}
	}

	seen := make(map[string]bool)
	var ids []string
	for _, list := range [][]string{notebookIDs, shelfIDs} {
		for _, id := range list {
			if id == "" || seen[id] || excluded[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func upToDate(id string, book entities.TargetBook, progress map[string]weread.BookProgress, archive map[string]string) bool {
	if p, ok := progress[id]; ok {
		if book.ReadingTime == nil || *book.ReadingTime != p.ReadingTime {
			return false
		}
	}
	if book.Shelf != archive[id] {
		return false
	}
	if !book.HasCover {
		return false
	}
	if book.Status == entities.StatusFinished && book.MyRating == "" {
		return false
	}
	return true
}
