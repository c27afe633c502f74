package domain

import (
	"errors"
	"time"
)

var (
	ErrProgressNotFound = errors.New("no reading progress for chapter")
)

// ReadingProgress is a per-chapter watermark. Both counters only ever grow.
type ReadingProgress struct {
	ChapterID        int       `json:"chapter_id"`
	LastVerseRead    int       `json:"last_verse_read"`
	TotalVerseMarker int       `json:"total_verse_marker"`
	VerseCount       int       `json:"verse_count,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewReadingProgress(chapterID, verse, verseCount int, now time.Time) *ReadingProgress {
	return &ReadingProgress{
		ChapterID:        chapterID,
		LastVerseRead:    verse,
		TotalVerseMarker: verse,
		VerseCount:       verseCount,
		UpdatedAt:        now.UTC(),
	}
}

// Advance raises the watermark to verse. It reports whether anything changed;
// a lower or equal ordinal is a no-op.
func (p *ReadingProgress) Advance(verse, verseCount int, now time.Time) bool {
	changed := false

	if verse > p.LastVerseRead {
		p.LastVerseRead = verse
		changed = true
	}
	if verse > p.TotalVerseMarker {
		p.TotalVerseMarker = verse
		changed = true
	}
	if verseCount > p.VerseCount {
		p.VerseCount = verseCount
		changed = true
	}

	if changed {
		p.UpdatedAt = now.UTC()
	}
	return changed
}

// Completed is only meaningful once the chapter length is known.
func (p *ReadingProgress) Completed() bool {
	return p.VerseCount > 0 && p.TotalVerseMarker >= p.VerseCount
}
