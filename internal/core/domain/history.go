package domain

import "time"

const MaxHistoryEntries = 10

type HistoryEntry struct {
	ChapterID        int       `json:"chapter_id"`
	ChapterName      string    `json:"chapter_name"`
	ChapterLatinName string    `json:"chapter_latin_name"`
	VisitedAt        time.Time `json:"visited_at"`
}

// PushHistory moves (or inserts) entry to the front, drops any older entry for
// the same chapter and caps the list at MaxHistoryEntries. The list stays
// strictly ordered by descending VisitedAt even if the wall clock stepped back.
func PushHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	rest := make([]HistoryEntry, 0, MaxHistoryEntries)
	for _, h := range history {
		if len(rest) == MaxHistoryEntries-1 {
			break
		}
		if h.ChapterID == entry.ChapterID {
			continue
		}
		rest = append(rest, h)
	}

	if len(rest) > 0 && !entry.VisitedAt.After(rest[0].VisitedAt) {
		entry.VisitedAt = rest[0].VisitedAt.Add(time.Millisecond)
	}

	return append([]HistoryEntry{entry}, rest...)
}
