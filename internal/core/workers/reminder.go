package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

const (
	ReminderTitle = "Al-Qur'an Digital"
	ReminderBody  = "Time for today's Quran reading"
)

// ReminderScheduler keeps at most one daily reminder armed. Every reschedule
// cancels the previous timer first; after firing the reminder is armed again
// for the following day.
type ReminderScheduler struct {
	notifier  domain.Notifier
	now       func() time.Time
	afterFunc services.AfterFunc

	mu         sync.Mutex
	settings   domain.Settings
	timer      services.Timer
	nextFire   time.Time
	generation uint64
	stopped    bool
}

func NewReminderScheduler(notifier domain.Notifier) *ReminderScheduler {
	return &ReminderScheduler{
		notifier: notifier,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) services.Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// SetClock replaces the time source and timer factory. Intended for tests.
func (r *ReminderScheduler) SetClock(now func() time.Time, afterFunc services.AfterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	if afterFunc != nil {
		r.afterFunc = afterFunc
	}
}

// Reschedule arms the reminder from settings, replacing whatever was armed.
// A disabled reminder or an unparsable time leaves nothing armed.
func (r *ReminderScheduler) Reschedule(settings domain.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings = settings
	r.stopped = false
	r.armLocked()
}

// OnSettingsChanged rearms only when the reminder fields changed.
func (r *ReminderScheduler) OnSettingsChanged(ctx context.Context, prev, next domain.Settings) {
	if prev.DailyReminderEnabled == next.DailyReminderEnabled && prev.ReminderTime == next.ReminderTime {
		return
	}
	r.Reschedule(next)
}

func (r *ReminderScheduler) NextFire() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer == nil {
		return time.Time{}, false
	}
	return r.nextFire, true
}

func (r *ReminderScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()
	r.stopped = true
}

func (r *ReminderScheduler) armLocked() {
	r.cancelLocked()

	if r.stopped || !r.settings.DailyReminderEnabled {
		return
	}

	at, err := domain.ParseClockTime(r.settings.ReminderTime)
	if err != nil {
		log.Printf("[REMINDER] Invalid reminder time %q: %v", r.settings.ReminderTime, err)
		return
	}

	now := r.now()
	fireAt := domain.NextOccurrence(now, at)
	gen := r.generation

	r.nextFire = fireAt
	r.timer = r.afterFunc(fireAt.Sub(now), func() {
		r.fire(gen)
	})

	log.Printf("[REMINDER] Armed for %s", fireAt.Format(time.RFC3339))
}

func (r *ReminderScheduler) cancelLocked() {
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.nextFire = time.Time{}
}

func (r *ReminderScheduler) fire(gen uint64) {
	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.mu.Unlock()

	n := domain.Notification{
		ID:    uuid.NewString(),
		Title: ReminderTitle,
		Body:  ReminderBody,
	}

	if r.notifier != nil {
		err := r.notifier.Notify(context.Background(), n)
		switch {
		case errors.Is(err, domain.ErrNotificationDenied):
			log.Printf("[REMINDER] Notification permission not granted, skipping")
		case err != nil:
			log.Printf("[REMINDER] Failed to deliver reminder: %v", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen == r.generation {
		r.armLocked()
	}
}
