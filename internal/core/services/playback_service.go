package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

const DefaultContinuationDelay = 500 * time.Millisecond

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type SettingsReader interface {
	Get() domain.Settings
}

type ReadMarker interface {
	MarkRead(ctx context.Context, chapterID, verse, chapterVerseCount int) (domain.ReadingProgress, bool, error)
}

// PlaybackService drives the Idle/Playing state machine. Transitions come from
// explicit Play/Stop calls and from OnSegmentEnded; at most one delayed
// continuation is pending at any time.
type PlaybackService struct {
	clock

	prefs    SettingsReader
	content  domain.ContentProvider
	tracker  ReadMarker
	notifier domain.Notifier

	delay     time.Duration
	afterFunc AfterFunc

	mu         sync.Mutex
	state      domain.PlaybackState
	pending    Timer
	generation uint64
}

type PlaybackDependencies struct {
	Prefs    SettingsReader
	Content  domain.ContentProvider
	Tracker  ReadMarker
	Notifier domain.Notifier
	Delay    time.Duration
}

func NewPlaybackService(deps PlaybackDependencies) *PlaybackService {
	delay := deps.Delay
	if delay < 0 {
		delay = 0
	}

	return &PlaybackService{
		prefs:     deps.Prefs,
		content:   deps.Content,
		tracker:   deps.Tracker,
		notifier:  deps.Notifier,
		delay:     delay,
		afterFunc: realAfterFunc,
		state:     domain.IdleState(time.Now()),
	}
}

// SetAfterFunc replaces the timer factory. Intended for tests.
func (s *PlaybackService) SetAfterFunc(fn AfterFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterFunc = fn
}

func (s *PlaybackService) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

type PlayInput struct {
	ChapterID   int
	VerseNumber int
	Resource    string
}

// Play forces the Playing state. Without an explicit resource the verse audio
// is resolved along the narrator chain.
func (s *PlaybackService) Play(ctx context.Context, input PlayInput) (domain.PlaybackState, error) {
	ref := domain.VerseRef{ChapterID: input.ChapterID, VerseNumber: input.VerseNumber}
	if err := ref.Validate(); err != nil {
		return s.State(), err
	}

	resource := input.Resource
	verseCount := 0

	if resource == "" {
		chapter, err := s.content.ChapterDetail(ctx, input.ChapterID)
		if err != nil {
			return s.State(), fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
		}
		verse, ok := chapter.Verse(input.VerseNumber)
		if !ok {
			return s.State(), domain.ErrVerseNotFound
		}
		uri, ok := domain.ResolveAudio(verse.Audio, s.prefs.Get().SelectedNarrator)
		if !ok {
			return s.State(), domain.ErrAudioUnavailable
		}
		resource = uri
		verseCount = len(chapter.Verses)
	}

	s.mu.Lock()
	s.cancelPendingLocked()
	s.state = domain.PlaybackState{
		Status:      domain.PlaybackPlaying,
		ChapterID:   input.ChapterID,
		VerseNumber: input.VerseNumber,
		Resource:    resource,
		ChangedAt:   s.Now().UTC(),
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
	s.markRead(ctx, input.ChapterID, input.VerseNumber, verseCount)

	return state, nil
}

// Stop forces Idle and cancels any pending continuation.
func (s *PlaybackService) Stop() domain.PlaybackState {
	s.mu.Lock()
	s.cancelPendingLocked()
	s.state = domain.IdleState(s.Now())
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
	return state
}

// OnSegmentEnded decides what follows the finished verse. A stop is applied
// immediately; a verse to play is applied after the continuation delay so the
// audio engine is not asked to load back-to-back segments at once. A signal
// received while idle, or for a verse other than the one currently playing,
// is stale and ignored.
func (s *PlaybackService) OnSegmentEnded(ctx context.Context, chapterID, verse int) (domain.Continuation, error) {
	ref := domain.VerseRef{ChapterID: chapterID, VerseNumber: verse}
	if err := ref.Validate(); err != nil {
		return domain.Continuation{}, err
	}

	s.mu.Lock()
	if s.state.Status == domain.PlaybackIdle {
		s.mu.Unlock()
		log.Printf("[PLAYBACK] Ignoring segment end %d:%d while idle", chapterID, verse)
		return domain.StopContinuation(domain.ReasonStale), nil
	}
	if s.state.ChapterID != chapterID || s.state.VerseNumber != verse {
		s.mu.Unlock()
		log.Printf("[PLAYBACK] Ignoring stale segment end %d:%d (playing %d:%d)",
			chapterID, verse, s.state.ChapterID, s.state.VerseNumber)
		return domain.StopContinuation(domain.ReasonStale), nil
	}
	s.cancelPendingLocked()
	gen := s.generation
	s.mu.Unlock()

	chapter, err := s.content.ChapterDetail(ctx, chapterID)
	if err != nil {
		s.stopIfCurrent(gen)
		return domain.StopContinuation(domain.ReasonNoAudio), fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}

	decision := DecideContinuation(s.prefs.Get(), chapter, verse)

	if !decision.Play {
		if !s.stopIfCurrent(gen) {
			return domain.StopContinuation(domain.ReasonStale), nil
		}
		return decision, nil
	}

	if !s.schedule(gen, decision, len(chapter.Verses)) {
		return domain.StopContinuation(domain.ReasonStale), nil
	}
	return decision, nil
}

// stopIfCurrent moves to Idle unless a Play or Stop happened since gen was
// taken.
func (s *PlaybackService) stopIfCurrent(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state = domain.IdleState(s.Now())
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(state)
	return true
}

func (s *PlaybackService) schedule(gen uint64, decision domain.Continuation, verseCount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}

	s.generation++
	next := s.generation

	pending := decision
	s.state.Pending = &pending

	s.pending = s.afterFunc(s.delay, func() {
		s.fire(next, decision, verseCount)
	})
	return true
}

func (s *PlaybackService) fire(gen uint64, decision domain.Continuation, verseCount int) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.state = domain.PlaybackState{
		Status:      domain.PlaybackPlaying,
		ChapterID:   decision.ChapterID,
		VerseNumber: decision.VerseNumber,
		Resource:    decision.Resource,
		ChangedAt:   s.Now().UTC(),
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("[PLAYBACK] %s -> %d:%d", decision.Reason, decision.ChapterID, decision.VerseNumber)
	s.publish(state)
	s.markRead(context.Background(), decision.ChapterID, decision.VerseNumber, verseCount)
}

// cancelPendingLocked invalidates the scheduled continuation, if any. Bumping
// the generation also covers a timer that already fired and is waiting on
// the lock.
func (s *PlaybackService) cancelPendingLocked() {
	s.generation++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.state.Pending = nil
}

func (s *PlaybackService) snapshotLocked() domain.PlaybackState {
	state := s.state
	if state.Pending != nil {
		p := *state.Pending
		state.Pending = &p
	}
	return state
}

func (s *PlaybackService) publish(state domain.PlaybackState) {
	if s.notifier != nil {
		s.notifier.Publish(domain.EventPlayback, state)
	}
}

func (s *PlaybackService) markRead(ctx context.Context, chapterID, verse, verseCount int) {
	if s.tracker == nil {
		return
	}
	if _, _, err := s.tracker.MarkRead(ctx, chapterID, verse, verseCount); err != nil {
		log.Printf("[PLAYBACK] Failed to mark %d:%d as read: %v", chapterID, verse, err)
	}
}
