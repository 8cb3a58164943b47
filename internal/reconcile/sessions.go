package reconcile

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/mrlokans/readsync/internal/entities"
)

// SessionStats counts the session records touched for one book.
type SessionStats struct {
	Created   int
	Updated   int
	Unchanged int
}

// MergeSessions makes the session records of a book page match the given
// day timestamp to seconds map. Existing records are matched by timestamp
// and updated only when the duration changed; unmatched days get new
// records. Records for days missing from sessions are left alone.
func (m *Merger) MergeSessions(ctx context.Context, bookPageID string, sessions map[int64]int64) (SessionStats, error) {
	var stats SessionStats
	if len(sessions) == 0 {
		return stats, nil
	}

	existing, err := m.ws.QuerySessions(ctx, bookPageID)
	if err != nil {
		return stats, err
	}
	slices.SortFunc(existing, func(a, b entities.TargetSession) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	pending := maps.Clone(sessions)
	for _, rec := range existing {
		seconds, ok := pending[rec.Timestamp]
		if !ok {
			continue
		}
		delete(pending, rec.Timestamp)

		if rec.Seconds == seconds {
			stats.Unchanged++
			continue
		}
		if err := m.ws.UpdateSession(ctx, rec.PageID, bookPageID, m.session(rec.Timestamp, seconds)); err != nil {
			return stats, err
		}
		stats.Updated++
		m.stats.SessionsUpdated++
	}

	for _, ts := range slices.Sorted(maps.Keys(pending)) {
		if _, err := m.ws.CreateSession(ctx, bookPageID, m.session(ts, pending[ts])); err != nil {
			return stats, err
		}
		stats.Created++
		m.stats.SessionsCreated++
	}
	return stats, nil
}

func (m *Merger) session(ts, seconds int64) entities.ReadingSession {
	return entities.ReadingSession{
		Timestamp: ts,
		Day:       time.Unix(ts, 0).In(m.loc),
		Seconds:   seconds,
	}
}
