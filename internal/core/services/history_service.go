package services

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

type HistoryService struct {
	clock

	slots domain.SlotStore

	mu      sync.RWMutex
	history []domain.HistoryEntry
}

func NewHistoryService(ctx context.Context, slots domain.SlotStore) *HistoryService {
	stored := LoadSlot(ctx, slots, domain.SlotHistory, []domain.HistoryEntry{})

	valid := make([]domain.HistoryEntry, 0, len(stored))
	for _, h := range stored {
		if domain.ValidateChapterID(h.ChapterID) == nil {
			valid = append(valid, h)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].VisitedAt.After(valid[j].VisitedAt)
	})

	// Rebuild through PushHistory, oldest first, so a hand-edited slot still
	// comes out deduplicated and capped.
	history := make([]domain.HistoryEntry, 0, domain.MaxHistoryEntries)
	for i := len(valid) - 1; i >= 0; i-- {
		history = domain.PushHistory(history, valid[i])
	}

	return &HistoryService{
		slots:   slots,
		history: history,
	}
}

// Visit records a chapter visit, moving it to the front of the history.
func (s *HistoryService) Visit(ctx context.Context, chapterID int, name, latinName string) (domain.HistoryEntry, error) {
	if err := domain.ValidateChapterID(chapterID); err != nil {
		return domain.HistoryEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = domain.PushHistory(s.history, domain.HistoryEntry{
		ChapterID:        chapterID,
		ChapterName:      name,
		ChapterLatinName: latinName,
		VisitedAt:        s.Now().UTC(),
	})
	s.persistLocked(ctx)

	return s.history[0], nil
}

// List returns the history, most recent first.
func (s *HistoryService) List() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

func (s *HistoryService) LastRead() (domain.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return domain.HistoryEntry{}, false
	}
	return s.history[0], true
}

func (s *HistoryService) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = make([]domain.HistoryEntry, 0, domain.MaxHistoryEntries)
	s.persistLocked(ctx)
}

func (s *HistoryService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

func (s *HistoryService) persistLocked(ctx context.Context) {
	_ = SaveSlot(ctx, s.slots, domain.SlotHistory, s.history)
}
