package domain

import (
	"errors"
	"time"
)

var (
	ErrAudioUnavailable = errors.New("no audio resource available for verse")
)

type PlaybackStatus string

const (
	PlaybackIdle    PlaybackStatus = "idle"
	PlaybackPlaying PlaybackStatus = "playing"
)

// PlaybackState is either Idle (zero ChapterID) or Playing a single verse.
type PlaybackState struct {
	Status      PlaybackStatus `json:"status"`
	ChapterID   int            `json:"chapter_id,omitempty"`
	VerseNumber int            `json:"verse_number,omitempty"`
	Resource    string         `json:"resource,omitempty"`
	Pending     *Continuation  `json:"pending,omitempty"`
	ChangedAt   time.Time      `json:"changed_at"`
}

func IdleState(now time.Time) PlaybackState {
	return PlaybackState{Status: PlaybackIdle, ChangedAt: now.UTC()}
}

type ContinuationReason string

const (
	ReasonAutoAdvance   ContinuationReason = "auto_advance"
	ReasonRepeatVerse   ContinuationReason = "repeat_verse"
	ReasonRepeatChapter ContinuationReason = "repeat_chapter"
	ReasonStop          ContinuationReason = "stop"
	ReasonNoAudio       ContinuationReason = "no_audio"
	ReasonStale         ContinuationReason = "stale"
)

// Continuation is the outcome of a finished segment: either the next verse to
// play or a stop.
type Continuation struct {
	Play        bool               `json:"play"`
	ChapterID   int                `json:"chapter_id,omitempty"`
	VerseNumber int                `json:"verse_number,omitempty"`
	Resource    string             `json:"resource,omitempty"`
	Reason      ContinuationReason `json:"reason"`
}

func StopContinuation(reason ContinuationReason) Continuation {
	return Continuation{Play: false, Reason: reason}
}
