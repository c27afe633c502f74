package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrInvalidTheme      = errors.New("invalid theme (must be light or dark)")
	ErrInvalidRepeatMode = errors.New("invalid repeat mode (must be off, verse, or chapter)")
	ErrInvalidTime       = errors.New("invalid time format (must be HH:MM 24h)")
	ErrInvalidNarrator   = errors.New("narrator key cannot be empty")
)

var clockRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type RepeatMode string

const (
	RepeatOff     RepeatMode = "off"
	RepeatVerse   RepeatMode = "verse"
	RepeatChapter RepeatMode = "chapter"
)

const (
	MinArabicFontSize = 16
	MaxArabicFontSize = 32
	MinLatinFontSize  = 12
	MaxLatinFontSize  = 20

	FallbackNarrator = "01"
)

type Settings struct {
	Theme                Theme      `json:"theme"`
	ArabicFontSize       int        `json:"arabic_font_size"`
	LatinFontSize        int        `json:"latin_font_size"`
	ShowTranslation      bool       `json:"show_translation"`
	SelectedNarrator     string     `json:"selected_narrator"`
	AutoPlayNext         bool       `json:"auto_play_next"`
	RepeatMode           RepeatMode `json:"repeat_mode"`
	NightModeStart       string     `json:"night_mode_start"`
	NightModeEnd         string     `json:"night_mode_end"`
	DailyReminderEnabled bool       `json:"daily_reminder_enabled"`
	ReminderTime         string     `json:"reminder_time"`

	// NightModeForced is set when the dark theme was applied by the night-mode
	// window rather than by the reader.
	NightModeForced bool `json:"night_mode_forced"`
}

func DefaultSettings() Settings {
	return Settings{
		Theme:                ThemeLight,
		ArabicFontSize:       24,
		LatinFontSize:        16,
		ShowTranslation:      true,
		SelectedNarrator:     FallbackNarrator,
		AutoPlayNext:         false,
		RepeatMode:           RepeatOff,
		NightModeStart:       "18:00",
		NightModeEnd:         "06:00",
		DailyReminderEnabled: false,
		ReminderTime:         "05:00",
	}
}

// SettingsPatch is a partial update. Nil fields keep their current value.
type SettingsPatch struct {
	Theme                *Theme      `json:"theme,omitempty"`
	ArabicFontSize       *int        `json:"arabic_font_size,omitempty"`
	LatinFontSize        *int        `json:"latin_font_size,omitempty"`
	ShowTranslation      *bool       `json:"show_translation,omitempty"`
	SelectedNarrator     *string     `json:"selected_narrator,omitempty"`
	AutoPlayNext         *bool       `json:"auto_play_next,omitempty"`
	RepeatMode           *RepeatMode `json:"repeat_mode,omitempty"`
	NightModeStart       *string     `json:"night_mode_start,omitempty"`
	NightModeEnd         *string     `json:"night_mode_end,omitempty"`
	DailyReminderEnabled *bool       `json:"daily_reminder_enabled,omitempty"`
	ReminderTime         *string     `json:"reminder_time,omitempty"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatVerse, RepeatChapter:
		return true
	}
	return false
}

// Apply returns a copy of s with the patch merged in. The receiver is never
// modified, so a rejected patch leaves the current settings untouched.
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	next := s

	if p.Theme != nil {
		if !p.Theme.Valid() {
			return s, ErrInvalidTheme
		}
		next.Theme = *p.Theme
		next.NightModeForced = false
	}
	if p.ArabicFontSize != nil {
		next.ArabicFontSize = *p.ArabicFontSize
	}
	if p.LatinFontSize != nil {
		next.LatinFontSize = *p.LatinFontSize
	}
	if p.ShowTranslation != nil {
		next.ShowTranslation = *p.ShowTranslation
	}
	if p.SelectedNarrator != nil {
		if *p.SelectedNarrator == "" {
			return s, ErrInvalidNarrator
		}
		next.SelectedNarrator = *p.SelectedNarrator
	}
	if p.AutoPlayNext != nil {
		next.AutoPlayNext = *p.AutoPlayNext
	}
	if p.RepeatMode != nil {
		if !p.RepeatMode.Valid() {
			return s, ErrInvalidRepeatMode
		}
		next.RepeatMode = *p.RepeatMode
	}
	if p.NightModeStart != nil {
		if !clockRegex.MatchString(*p.NightModeStart) {
			return s, fmt.Errorf("night_mode_start: %w", ErrInvalidTime)
		}
		next.NightModeStart = *p.NightModeStart
	}
	if p.NightModeEnd != nil {
		if !clockRegex.MatchString(*p.NightModeEnd) {
			return s, fmt.Errorf("night_mode_end: %w", ErrInvalidTime)
		}
		next.NightModeEnd = *p.NightModeEnd
	}
	if p.DailyReminderEnabled != nil {
		next.DailyReminderEnabled = *p.DailyReminderEnabled
	}
	if p.ReminderTime != nil {
		if !clockRegex.MatchString(*p.ReminderTime) {
			return s, fmt.Errorf("reminder_time: %w", ErrInvalidTime)
		}
		next.ReminderTime = *p.ReminderTime
	}

	return next.Normalize(), nil
}

// Normalize clamps font sizes and replaces any invalid field with its default.
// It is applied to everything read back from storage.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()

	s.ArabicFontSize = clamp(s.ArabicFontSize, MinArabicFontSize, MaxArabicFontSize)
	s.LatinFontSize = clamp(s.LatinFontSize, MinLatinFontSize, MaxLatinFontSize)

	if !s.Theme.Valid() {
		s.Theme = def.Theme
	}
	if !s.RepeatMode.Valid() {
		s.RepeatMode = def.RepeatMode
	}
	if s.SelectedNarrator == "" {
		s.SelectedNarrator = def.SelectedNarrator
	}
	if !clockRegex.MatchString(s.NightModeStart) {
		s.NightModeStart = def.NightModeStart
	}
	if !clockRegex.MatchString(s.NightModeEnd) {
		s.NightModeEnd = def.NightModeEnd
	}
	if !clockRegex.MatchString(s.ReminderTime) {
		s.ReminderTime = def.ReminderTime
	}
	if s.Theme != ThemeDark {
		s.NightModeForced = false
	}
	return s
}

// ClockTime is a time of day expressed in minutes after midnight.
type ClockTime int

func ParseClockTime(v string) (ClockTime, error) {
	if !clockRegex.MatchString(v) {
		return 0, ErrInvalidTime
	}
	h := int(v[0]-'0')*10 + int(v[1]-'0')
	m := int(v[3]-'0')*10 + int(v[4]-'0')
	return ClockTime(h*60 + m), nil
}

func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// NightWindow is the half-open interval [Start, End) during which the dark
// theme is forced. A window with Start > End wraps midnight; Start == End
// never forces anything.
type NightWindow struct {
	Start ClockTime
	End   ClockTime
}

func (s Settings) NightWindow() (NightWindow, error) {
	start, err := ParseClockTime(s.NightModeStart)
	if err != nil {
		return NightWindow{}, err
	}
	end, err := ParseClockTime(s.NightModeEnd)
	if err != nil {
		return NightWindow{}, err
	}
	return NightWindow{Start: start, End: end}, nil
}

func (w NightWindow) Contains(t ClockTime) bool {
	switch {
	case w.Start == w.End:
		return false
	case w.Start > w.End:
		return t >= w.Start || t < w.End
	default:
		return t >= w.Start && t < w.End
	}
}

// NextOccurrence returns the next wall-clock instant at the given time of day
// in now's location: today if it is still strictly ahead, otherwise tomorrow.
func NextOccurrence(now time.Time, at ClockTime) time.Time {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d, int(at)/60, int(at)%60, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
