package services

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

type NoteService struct {
	clock

	slots domain.SlotStore

	mu    sync.RWMutex
	notes []domain.Note
	index map[domain.VerseRef]int
}

func NewNoteService(ctx context.Context, slots domain.SlotStore) *NoteService {
	s := &NoteService{
		slots: slots,
		notes: make([]domain.Note, 0),
		index: make(map[domain.VerseRef]int),
	}

	stored := LoadSlot(ctx, slots, domain.SlotNotes, []domain.Note{})
	for _, n := range stored {
		ref := n.Ref()
		if ref.Validate() != nil {
			continue
		}
		text, err := domain.NormalizeNoteText(n.Text)
		if err != nil || text == "" {
			continue
		}
		if _, dup := s.index[ref]; dup {
			continue
		}
		n.Text = text
		s.index[ref] = len(s.notes)
		s.notes = append(s.notes, n)
	}

	return s
}

// Save creates or updates the note for a verse. Saving empty text deletes the
// note; in that case the returned note is nil.
func (s *NoteService) Save(ctx context.Context, chapterID, verse int, text string) (*domain.Note, error) {
	ref := domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	clean, err := domain.NormalizeNoteText(text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if clean == "" {
		s.deleteLocked(ctx, ref)
		return nil, nil
	}

	now := s.Now().UTC()

	if i, ok := s.index[ref]; ok {
		if s.notes[i].Text == clean {
			note := s.notes[i]
			return &note, nil
		}
		s.notes[i].Text = clean
		s.notes[i].UpdatedAt = now
		s.persistLocked(ctx)
		note := s.notes[i]
		return &note, nil
	}

	note := domain.Note{
		ChapterID:   chapterID,
		VerseNumber: verse,
		Text:        clean,
		UpdatedAt:   now,
	}
	s.index[ref] = len(s.notes)
	s.notes = append(s.notes, note)
	s.persistLocked(ctx)

	return &note, nil
}

func (s *NoteService) Delete(ctx context.Context, chapterID, verse int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(ctx, domain.VerseRef{ChapterID: chapterID, VerseNumber: verse})
}

func (s *NoteService) deleteLocked(ctx context.Context, ref domain.VerseRef) bool {
	i, ok := s.index[ref]
	if !ok {
		return false
	}

	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	s.index = make(map[domain.VerseRef]int, len(s.notes))
	for j, n := range s.notes {
		s.index[n.Ref()] = j
	}
	s.persistLocked(ctx)
	return true
}

func (s *NoteService) Get(chapterID, verse int) (domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}]
	if !ok {
		return domain.Note{}, domain.ErrNoteNotFound
	}
	return s.notes[i], nil
}

func (s *NoteService) Has(chapterID, verse int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}]
	return ok
}

func (s *NoteService) List() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *NoteService) ListByChapter(chapterID int) []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Note, 0)
	for _, n := range s.notes {
		if n.ChapterID == chapterID {
			out = append(out, n)
		}
	}
	return out
}

func (s *NoteService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *NoteService) persistLocked(ctx context.Context) {
	_ = SaveSlot(ctx, s.slots, domain.SlotNotes, s.notes)
}
