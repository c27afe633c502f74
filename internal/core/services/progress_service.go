package services

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

type ProgressService struct {
	clock

	slots domain.SlotStore

	mu       sync.RWMutex
	progress map[int]*domain.ReadingProgress
}

func NewProgressService(ctx context.Context, slots domain.SlotStore) *ProgressService {
	s := &ProgressService{
		slots:    slots,
		progress: make(map[int]*domain.ReadingProgress),
	}

	stored := LoadSlot(ctx, slots, domain.SlotProgress, []domain.ReadingProgress{})
	for _, p := range stored {
		if domain.ValidateChapterID(p.ChapterID) != nil || p.LastVerseRead < 1 {
			continue
		}
		if existing, ok := s.progress[p.ChapterID]; ok {
			existing.Advance(p.LastVerseRead, p.VerseCount, existing.UpdatedAt)
			existing.Advance(p.TotalVerseMarker, 0, existing.UpdatedAt)
			continue
		}
		record := p
		if record.TotalVerseMarker < record.LastVerseRead {
			record.TotalVerseMarker = record.LastVerseRead
		}
		s.progress[p.ChapterID] = &record
	}

	return s
}

// MarkRead raises the watermark of a chapter to verse. A verse at or below
// the current watermark changes nothing and does not touch storage.
func (s *ProgressService) MarkRead(ctx context.Context, chapterID, verse, verseCount int) (domain.ReadingProgress, bool, error) {
	ref := domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}
	if err := ref.Validate(); err != nil {
		return domain.ReadingProgress{}, false, err
	}
	if verseCount < 0 || (verseCount > 0 && verse > verseCount) {
		return domain.ReadingProgress{}, false, domain.ErrInvalidVerse
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()

	p, ok := s.progress[chapterID]
	if !ok {
		p = domain.NewReadingProgress(chapterID, verse, verseCount, now)
		s.progress[chapterID] = p
		s.persistLocked(ctx)
		return *p, true, nil
	}

	if !p.Advance(verse, verseCount, now) {
		return *p, false, nil
	}

	s.persistLocked(ctx)
	return *p, true, nil
}

func (s *ProgressService) Get(chapterID int) (domain.ReadingProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[chapterID]
	if !ok {
		return domain.ReadingProgress{}, domain.ErrProgressNotFound
	}
	return *p, nil
}

// List returns all records ordered by chapter id.
func (s *ProgressService) List() []domain.ReadingProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *ProgressService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress = make(map[int]*domain.ReadingProgress)
	s.persistLocked(ctx)
}

func (s *ProgressService) snapshotLocked() []domain.ReadingProgress {
	out := make([]domain.ReadingProgress, 0, len(s.progress))
	for _, p := range s.progress {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChapterID < out[j].ChapterID
	})
	return out
}

func (s *ProgressService) persistLocked(ctx context.Context) {
	_ = SaveSlot(ctx, s.slots, domain.SlotProgress, s.snapshotLocked())
}

// VerseTracker is the sink the rendering layer fires when a verse becomes
// visible or is interacted with.
type VerseTracker struct {
	progress *ProgressService
}

func NewVerseTracker(progress *ProgressService) *VerseTracker {
	return &VerseTracker{progress: progress}
}

func (t *VerseTracker) MarkRead(ctx context.Context, chapterID, verse, chapterVerseCount int) (domain.ReadingProgress, bool, error) {
	return t.progress.MarkRead(ctx, chapterID, verse, chapterVerseCount)
}
