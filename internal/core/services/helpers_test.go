package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

func ptr[T any](v T) *T {
	return &v
}

var fixedNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

// steppingClock advances by one second on every call so created and visited
// timestamps are distinct.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: fixedNow}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

var errStorageDown = errors.New("storage down")

// brokenStore fails every operation, like a full or unavailable backend.
type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errStorageDown
}

func (brokenStore) Put(ctx context.Context, key string, value []byte) error {
	return errStorageDown
}

func (brokenStore) Delete(ctx context.Context, key string) error {
	return errStorageDown
}

func (brokenStore) Ping(ctx context.Context) error {
	return errStorageDown
}

// countingStore wraps a SlotStore and counts writes per key.
type countingStore struct {
	domain.SlotStore

	mu     sync.Mutex
	writes map[string]int
}

func newCountingStore(next domain.SlotStore) *countingStore {
	return &countingStore{SlotStore: next, writes: make(map[string]int)}
}

func (s *countingStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.writes[key]++
	s.mu.Unlock()
	return s.SlotStore.Put(ctx, key, value)
}

func (s *countingStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(eventType domain.EventType, data any) {
	m.Called(eventType, data)
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// fakeContent serves chapters whose verses all carry audio from narrator
// "01" unless audio is overridden.
type fakeContent struct {
	mu       sync.Mutex
	chapters map[int]*domain.ChapterDetail
	fail     bool
	calls    int
}

func newFakeContent() *fakeContent {
	return &fakeContent{chapters: make(map[int]*domain.ChapterDetail)}
}

func (f *fakeContent) add(detail *domain.ChapterDetail) *fakeContent {
	f.chapters[detail.ID] = detail
	return f
}

func (f *fakeContent) ChapterList(ctx context.Context) ([]domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("offline")
	}
	out := make([]domain.Chapter, 0, len(f.chapters))
	for _, d := range f.chapters {
		out = append(out, d.Chapter)
	}
	return out, nil
}

func (f *fakeContent) ChapterDetail(ctx context.Context, id int) (*domain.ChapterDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("offline")
	}
	d, ok := f.chapters[id]
	if !ok {
		return nil, fmt.Errorf("chapter %d not found", id)
	}
	return d, nil
}

func (f *fakeContent) Commentary(ctx context.Context, id int) (*domain.Commentary, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeContent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeContent) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// chapterWith builds a chapter of count verses; narrators lists the audio keys
// present on every verse.
func chapterWith(id, count int, narrators ...string) *domain.ChapterDetail {
	if len(narrators) == 0 {
		narrators = []string{domain.FallbackNarrator}
	}
	d := &domain.ChapterDetail{
		Chapter: domain.Chapter{ID: id, LatinName: fmt.Sprintf("Chapter %d", id), VerseCount: count},
	}
	for v := 1; v <= count; v++ {
		audio := make(map[string]string, len(narrators))
		for _, n := range narrators {
			audio[n] = audioURI(id, v, n)
		}
		d.Verses = append(d.Verses, domain.Verse{Number: v, Audio: audio})
	}
	return d
}

func audioURI(chapter, verse int, narrator string) string {
	return fmt.Sprintf("https://cdn/%s/%03d%03d.mp3", narrator, chapter, verse)
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped
	t.stopped = true
	return active
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) services.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *fakeTimers) get(i int) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timers[i]
}

func (f *fakeTimers) fireLast() {
	f.mu.Lock()
	t := f.timers[len(f.timers)-1]
	f.mu.Unlock()
	t.fn()
}
