package services

import (
	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

type StatsService struct {
	progress  *ProgressService
	bookmarks *BookmarkService
	notes     *NoteService
	history   *HistoryService
}

func NewStatsService(progress *ProgressService, bookmarks *BookmarkService, notes *NoteService, history *HistoryService) *StatsService {
	return &StatsService{
		progress:  progress,
		bookmarks: bookmarks,
		notes:     notes,
		history:   history,
	}
}

// Summary only reads the stores; it never writes any of them.
func (s *StatsService) Summary() domain.ReadingStats {
	stats := domain.ReadingStats{
		Bookmarks:      s.bookmarks.Count(),
		Notes:          s.notes.Count(),
		HistoryEntries: s.history.Count(),
	}

	for _, p := range s.progress.List() {
		stats.TotalVersesRead += p.TotalVerseMarker
		if p.TotalVerseMarker >= 1 {
			stats.ChaptersStarted++
		}
		if p.Completed() {
			stats.ChaptersCompleted++
		}
	}

	return stats
}
