package domain

import (
	"errors"
	"time"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

// Bookmark carries a display snapshot of the verse taken when it was created.
// It is never mutated afterwards.
type Bookmark struct {
	ChapterID       int       `json:"chapter_id"`
	VerseNumber     int       `json:"verse_number"`
	ChapterName     string    `json:"chapter_name"`
	ArabicText      string    `json:"arabic_text"`
	LatinText       string    `json:"latin_text,omitempty"`
	TranslationText string    `json:"translation_text"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewBookmark(ref VerseRef, chapterName, arabic, latin, translation string, now time.Time) (*Bookmark, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	return &Bookmark{
		ChapterID:       ref.ChapterID,
		VerseNumber:     ref.VerseNumber,
		ChapterName:     chapterName,
		ArabicText:      arabic,
		LatinText:       latin,
		TranslationText: translation,
		CreatedAt:       now.UTC(),
	}, nil
}

func (b *Bookmark) Ref() VerseRef {
	return VerseRef{ChapterID: b.ChapterID, VerseNumber: b.VerseNumber}
}
