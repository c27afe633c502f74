package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

// NightModeSchedule fires at the start of every minute.
const NightModeSchedule = "* * * * *"

type NightModePreferences interface {
	Get() domain.Settings
	ApplyNightMode(ctx context.Context, inWindow bool) (domain.Settings, bool)
}

// NightModeEvaluator forces the dark theme inside the configured window. It
// acts on edges only: when the window is entered or left, or when the window
// itself is edited. A manual theme change in between is left alone until the
// next edge.
type NightModeEvaluator struct {
	prefs    NightModePreferences
	now      func() time.Time
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool

	known        bool
	lastInWindow bool
	lastWindow   domain.NightWindow
}

func NewNightModeEvaluator(prefs NightModePreferences) *NightModeEvaluator {
	return &NightModeEvaluator{
		prefs:    prefs,
		now:      time.Now,
		schedule: NightModeSchedule,
		cron:     cron.New(),
	}
}

// SetClock replaces the time source. Intended for tests.
func (e *NightModeEvaluator) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *NightModeEvaluator) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.isRunning {
		e.mu.Unlock()
		return nil
	}

	entryID, err := e.cron.AddFunc(e.schedule, func() {
		e.Evaluate(ctx)
	})
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to schedule night mode check: %w", err)
	}
	e.entryID = entryID
	e.cron.Start()
	e.isRunning = true
	e.mu.Unlock()

	log.Printf("[NIGHT] Evaluator started (%s)", e.schedule)
	e.Evaluate(ctx)

	go func() {
		<-ctx.Done()
		e.Stop()
	}()

	return nil
}

// Stop waits for a running evaluation to finish. The wait happens outside
// the lock because Evaluate takes it too.
func (e *NightModeEvaluator) Stop() {
	e.mu.Lock()
	if !e.isRunning {
		e.mu.Unlock()
		return
	}
	c, entryID := e.cron, e.entryID
	e.cron = cron.New()
	e.isRunning = false
	e.mu.Unlock()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	c.Remove(entryID)

	log.Printf("[NIGHT] Evaluator stopped")
}

func (e *NightModeEvaluator) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isRunning
}

// Evaluate checks the window against the current time and reports whether
// the theme was changed.
func (e *NightModeEvaluator) Evaluate(ctx context.Context) bool {
	settings := e.prefs.Get()

	window, err := settings.NightWindow()
	if err != nil {
		log.Printf("[NIGHT] Invalid window %s-%s: %v", settings.NightModeStart, settings.NightModeEnd, err)
		return false
	}

	e.mu.Lock()
	inWindow := window.Contains(domain.ClockOf(e.now()))
	edge := !e.known || e.lastInWindow != inWindow || e.lastWindow != window
	e.known = true
	e.lastInWindow = inWindow
	e.lastWindow = window
	e.mu.Unlock()

	if !edge {
		return false
	}

	next, changed := e.prefs.ApplyNightMode(ctx, inWindow)
	if changed {
		log.Printf("[NIGHT] Theme switched to %s (window %s-%s)", next.Theme, settings.NightModeStart, settings.NightModeEnd)
	}
	return changed
}

// Resync forgets the last observed window state and evaluates again, so the
// window applies even when it did not change. Used after a settings reset.
func (e *NightModeEvaluator) Resync(ctx context.Context) {
	e.mu.Lock()
	e.known = false
	e.mu.Unlock()
	e.Evaluate(ctx)
}

// OnSettingsChanged re-evaluates immediately when the window was edited.
func (e *NightModeEvaluator) OnSettingsChanged(ctx context.Context, prev, next domain.Settings) {
	if prev.NightModeStart == next.NightModeStart && prev.NightModeEnd == next.NightModeEnd {
		return
	}
	e.Evaluate(ctx)
}
