package domain

import (
	"errors"
	"sort"
)

var (
	ErrInvalidChapter = errors.New("invalid chapter id (must be 1-114)")
	ErrInvalidVerse   = errors.New("invalid verse number (must be >= 1)")
	ErrVerseNotFound  = errors.New("verse not found in chapter")
)

const ChapterCount = 114

type Chapter struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	LatinName    string `json:"latin_name"`
	VerseCount   int    `json:"verse_count"`
	RevealedIn   string `json:"revealed_in"`
	Meaning      string `json:"meaning"`
	Description  string `json:"description"`
	ChapterAudio string `json:"chapter_audio,omitempty"`
}

type Verse struct {
	Number          int               `json:"number"`
	ArabicText      string            `json:"arabic_text"`
	LatinText       string            `json:"latin_text"`
	TranslationText string            `json:"translation_text"`
	Audio           map[string]string `json:"audio"`
}

type ChapterDetail struct {
	Chapter
	Verses []Verse `json:"verses"`
}

type CommentaryEntry struct {
	VerseNumber int    `json:"verse_number"`
	Text        string `json:"text"`
}

type Commentary struct {
	Chapter
	Entries []CommentaryEntry `json:"entries"`
}

// VerseRef identifies a verse by chapter id and 1-based ordinal.
type VerseRef struct {
	ChapterID   int `json:"chapter_id"`
	VerseNumber int `json:"verse_number"`
}

func ValidateChapterID(id int) error {
	if id < 1 || id > ChapterCount {
		return ErrInvalidChapter
	}
	return nil
}

func (r VerseRef) Validate() error {
	if err := ValidateChapterID(r.ChapterID); err != nil {
		return err
	}
	if r.VerseNumber < 1 {
		return ErrInvalidVerse
	}
	return nil
}

// Verse returns the verse with the given ordinal. Ordinals are contiguous, so
// the slice position is tried first.
func (d *ChapterDetail) Verse(number int) (Verse, bool) {
	if number >= 1 && number <= len(d.Verses) && d.Verses[number-1].Number == number {
		return d.Verses[number-1], true
	}
	for _, v := range d.Verses {
		if v.Number == number {
			return v, true
		}
	}
	return Verse{}, false
}

// NarratorCandidates lists the keys tried, in order, when resolving audio:
// the preferred narrator, the fallback narrator, then every available key in
// ascending order. Duplicates are removed.
func NarratorCandidates(audio map[string]string, preferred string) []string {
	keys := make([]string, 0, len(audio))
	for k := range audio {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]bool, len(keys)+2)
	candidates := make([]string, 0, len(keys)+2)
	for _, k := range append([]string{preferred, FallbackNarrator}, keys...) {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		candidates = append(candidates, k)
	}
	return candidates
}

// ResolveAudio picks the first non-empty resource along the narrator chain.
func ResolveAudio(audio map[string]string, preferred string) (string, bool) {
	for _, key := range NarratorCandidates(audio, preferred) {
		if uri := audio[key]; uri != "" {
			return uri, true
		}
	}
	return "", false
}
