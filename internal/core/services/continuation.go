package services

import (
	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

// DecideContinuation picks what plays after finished ends. Rules are tried in
// order and the first that applies wins:
//
//  1. auto-advance, unless finished is the last verse of the chapter
//  2. repeat the same verse
//  3. repeat the chapter from its first verse
//  4. stop
//
// Auto-advance returns before the repeat rules are looked at, so a leftover
// repeat mode only takes effect at the end of the chapter or once
// auto-advance is off. A verse without any resolvable audio resource stops
// playback.
func DecideContinuation(settings domain.Settings, chapter *domain.ChapterDetail, finished int) domain.Continuation {
	if chapter == nil || len(chapter.Verses) == 0 {
		return domain.StopContinuation(domain.ReasonNoAudio)
	}

	last := chapter.Verses[len(chapter.Verses)-1].Number

	if settings.AutoPlayNext && finished < last {
		return resolveContinuation(settings, chapter, finished+1, domain.ReasonAutoAdvance)
	}

	switch settings.RepeatMode {
	case domain.RepeatVerse:
		return resolveContinuation(settings, chapter, finished, domain.ReasonRepeatVerse)
	case domain.RepeatChapter:
		return resolveContinuation(settings, chapter, chapter.Verses[0].Number, domain.ReasonRepeatChapter)
	}

	return domain.StopContinuation(domain.ReasonStop)
}

func resolveContinuation(settings domain.Settings, chapter *domain.ChapterDetail, verse int, reason domain.ContinuationReason) domain.Continuation {
	v, ok := chapter.Verse(verse)
	if !ok {
		return domain.StopContinuation(domain.ReasonNoAudio)
	}

	uri, ok := domain.ResolveAudio(v.Audio, settings.SelectedNarrator)
	if !ok {
		return domain.StopContinuation(domain.ReasonNoAudio)
	}

	return domain.Continuation{
		Play:        true,
		ChapterID:   chapter.ID,
		VerseNumber: v.Number,
		Resource:    uri,
		Reason:      reason,
	}
}
