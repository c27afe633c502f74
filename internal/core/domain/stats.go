package domain

type ReadingStats struct {
	TotalVersesRead   int `json:"total_verses_read"`
	ChaptersStarted   int `json:"chapters_started"`
	ChaptersCompleted int `json:"chapters_completed"`
	Bookmarks         int `json:"bookmarks"`
	Notes             int `json:"notes"`
	HistoryEntries    int `json:"history_entries"`
}
