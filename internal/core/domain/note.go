package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrNoteTooLong  = errors.New("note is too long (max 5000 chars)")
)

const MaxNoteLen = 5000

type Note struct {
	ChapterID   int       `json:"chapter_id"`
	VerseNumber int       `json:"verse_number"`
	Text        string    `json:"text"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeNoteText trims the body. An empty result means the note must not
// exist.
func NormalizeNoteText(text string) (string, error) {
	clean := strings.TrimSpace(text)
	if len([]rune(clean)) > MaxNoteLen {
		return "", ErrNoteTooLong
	}
	return clean, nil
}

func (n *Note) Ref() VerseRef {
	return VerseRef{ChapterID: n.ChapterID, VerseNumber: n.VerseNumber}
}
