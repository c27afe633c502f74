package services

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

type BookmarkService struct {
	clock

	slots domain.SlotStore

	mu        sync.RWMutex
	bookmarks []domain.Bookmark
	index     map[domain.VerseRef]int
}

func NewBookmarkService(ctx context.Context, slots domain.SlotStore) *BookmarkService {
	s := &BookmarkService{
		slots:     slots,
		bookmarks: make([]domain.Bookmark, 0),
		index:     make(map[domain.VerseRef]int),
	}

	stored := LoadSlot(ctx, slots, domain.SlotBookmarks, []domain.Bookmark{})
	for _, b := range stored {
		ref := b.Ref()
		if ref.Validate() != nil {
			continue
		}
		if _, dup := s.index[ref]; dup {
			continue
		}
		s.index[ref] = len(s.bookmarks)
		s.bookmarks = append(s.bookmarks, b)
	}

	return s
}

type AddBookmarkInput struct {
	ChapterID       int
	VerseNumber     int
	ChapterName     string
	ArabicText      string
	LatinText       string
	TranslationText string
}

func (in AddBookmarkInput) ref() domain.VerseRef {
	return domain.VerseRef{ChapterID: in.ChapterID, VerseNumber: in.VerseNumber}
}

// Add stores a bookmark unless one already exists for the verse, in which
// case the existing bookmark is returned untouched and added is false.
func (s *BookmarkService) Add(ctx context.Context, input AddBookmarkInput) (domain.Bookmark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addLocked(ctx, input)
}

func (s *BookmarkService) addLocked(ctx context.Context, input AddBookmarkInput) (domain.Bookmark, bool, error) {
	ref := input.ref()
	if err := ref.Validate(); err != nil {
		return domain.Bookmark{}, false, err
	}

	if i, ok := s.index[ref]; ok {
		return s.bookmarks[i], false, nil
	}

	b, err := domain.NewBookmark(ref, input.ChapterName, input.ArabicText, input.LatinText, input.TranslationText, s.Now())
	if err != nil {
		return domain.Bookmark{}, false, err
	}

	s.index[ref] = len(s.bookmarks)
	s.bookmarks = append(s.bookmarks, *b)
	s.persistLocked(ctx)

	return *b, true, nil
}

func (s *BookmarkService) Remove(ctx context.Context, chapterID, verse int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(ctx, domain.VerseRef{ChapterID: chapterID, VerseNumber: verse})
}

func (s *BookmarkService) removeLocked(ctx context.Context, ref domain.VerseRef) bool {
	i, ok := s.index[ref]
	if !ok {
		return false
	}

	s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
	s.reindexLocked()
	s.persistLocked(ctx)
	return true
}

// Toggle removes the bookmark when present, otherwise adds it. It reports
// whether the verse is bookmarked afterwards.
func (s *BookmarkService) Toggle(ctx context.Context, input AddBookmarkInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := input.ref()
	if err := ref.Validate(); err != nil {
		return false, err
	}

	if s.removeLocked(ctx, ref) {
		return false, nil
	}

	if _, _, err := s.addLocked(ctx, input); err != nil {
		return false, err
	}
	return true, nil
}

func (s *BookmarkService) IsBookmarked(chapterID, verse int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}]
	return ok
}

func (s *BookmarkService) Get(chapterID, verse int) (domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}]
	if !ok {
		return domain.Bookmark{}, domain.ErrBookmarkNotFound
	}
	return s.bookmarks[i], nil
}

// List returns bookmarks in the order they were created.
func (s *BookmarkService) List() []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}

func (s *BookmarkService) ListByChapter(chapterID int) []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bookmark, 0)
	for _, b := range s.bookmarks {
		if b.ChapterID == chapterID {
			out = append(out, b)
		}
	}
	return out
}

func (s *BookmarkService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookmarks)
}

func (s *BookmarkService) reindexLocked() {
	s.index = make(map[domain.VerseRef]int, len(s.bookmarks))
	for i, b := range s.bookmarks {
		s.index[b.Ref()] = i
	}
}

func (s *BookmarkService) persistLocked(ctx context.Context) {
	_ = SaveSlot(ctx, s.slots, domain.SlotBookmarks, s.bookmarks)
}
