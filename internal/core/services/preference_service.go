package services

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

// SettingsListener is called after every settings change, outside the lock.
type SettingsListener func(ctx context.Context, prev, next domain.Settings)

type ResetHook func(ctx context.Context)

type PreferenceService struct {
	slots    domain.SlotStore
	notifier domain.Notifier

	mu        sync.RWMutex
	settings  domain.Settings
	listeners []SettingsListener
	onReset   []ResetHook
}

// NewPreferenceService loads settings merged over the defaults. notifier may
// be nil.
func NewPreferenceService(ctx context.Context, slots domain.SlotStore, notifier domain.Notifier) *PreferenceService {
	stored := LoadSlot(ctx, slots, domain.SlotSettings, domain.DefaultSettings())

	return &PreferenceService{
		slots:    slots,
		notifier: notifier,
		settings: stored.Normalize(),
	}
}

func (s *PreferenceService) OnChange(fn SettingsListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnReset registers fn to run after every Reset, including one that left the
// settings unchanged.
func (s *PreferenceService) OnReset(fn ResetHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReset = append(s.onReset, fn)
}

func (s *PreferenceService) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update merges patch into the current settings. A rejected patch leaves the
// settings untouched.
func (s *PreferenceService) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	return s.mutate(ctx, func(cur domain.Settings) (domain.Settings, error) {
		return cur.Apply(patch)
	})
}

func (s *PreferenceService) ToggleTheme(ctx context.Context) domain.Settings {
	next, _ := s.mutate(ctx, func(cur domain.Settings) (domain.Settings, error) {
		theme := cur.Theme.Opposite()
		return cur.Apply(domain.SettingsPatch{Theme: &theme})
	})
	return next
}

func (s *PreferenceService) Reset(ctx context.Context) domain.Settings {
	s.mutate(ctx, func(domain.Settings) (domain.Settings, error) {
		return domain.DefaultSettings(), nil
	})

	s.mu.RLock()
	hooks := append([]ResetHook(nil), s.onReset...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}

	return s.Get()
}

// ApplyNightMode is used by the night-mode evaluator. Entering the window
// forces the dark theme; leaving it only reverts a dark theme that the window
// forced, so a manual choice of dark is kept.
func (s *PreferenceService) ApplyNightMode(ctx context.Context, inWindow bool) (domain.Settings, bool) {
	changed := false
	next, _ := s.mutate(ctx, func(cur domain.Settings) (domain.Settings, error) {
		switch {
		case inWindow && cur.Theme != domain.ThemeDark:
			cur.Theme = domain.ThemeDark
			cur.NightModeForced = true
			changed = true
		case !inWindow && cur.Theme == domain.ThemeDark && cur.NightModeForced:
			cur.Theme = domain.ThemeLight
			cur.NightModeForced = false
			changed = true
		}
		return cur, nil
	})
	return next, changed
}

func (s *PreferenceService) mutate(ctx context.Context, fn func(domain.Settings) (domain.Settings, error)) (domain.Settings, error) {
	s.mu.Lock()

	prev := s.settings
	next, err := fn(prev)
	if err != nil {
		s.mu.Unlock()
		return prev, err
	}

	if next == prev {
		s.mu.Unlock()
		return next, nil
	}

	s.settings = next
	_ = SaveSlot(ctx, s.slots, domain.SlotSettings, next)
	listeners := append([]SettingsListener(nil), s.listeners...)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Publish(domain.EventSettings, next)
		if prev.Theme != next.Theme {
			s.notifier.Publish(domain.EventTheme, next.Theme)
		}
	}

	for _, fn := range listeners {
		fn(ctx, prev, next)
	}

	return next, nil
}
