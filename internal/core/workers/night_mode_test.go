package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(hour, minute int) *testClock {
	return &testClock{now: time.Date(2024, 6, 10, hour, minute, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(hour, minute int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, d := c.now.Date()
	c.now = time.Date(y, m, d, hour, minute, 0, 0, time.Local)
}

func setupNightMode(t *testing.T, hour, minute int) (*NightModeEvaluator, *services.PreferenceService, *testClock) {
	t.Helper()
	prefs := services.NewPreferenceService(context.Background(), newFlakyStore(), nil)
	clock := newTestClock(hour, minute)

	e := NewNightModeEvaluator(prefs)
	e.SetClock(clock.Now)
	prefs.OnChange(e.OnSettingsChanged)
	return e, prefs, clock
}

func TestNightMode_ForcesDarkInsideWindow(t *testing.T) {
	e, prefs, _ := setupNightMode(t, 23, 0)

	assert.True(t, e.Evaluate(context.Background()))
	s := prefs.Get()
	assert.Equal(t, domain.ThemeDark, s.Theme)
	assert.True(t, s.NightModeForced)
}

func TestNightMode_WrapsMidnight(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		minute int
		dark   bool
	}{
		{"Window start is inclusive", 18, 0, true},
		{"Just before start", 17, 59, false},
		{"After midnight", 2, 30, true},
		{"Window end is exclusive", 6, 0, false},
		{"Midday", 12, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, prefs, _ := setupNightMode(t, tt.hour, tt.minute)
			e.Evaluate(context.Background())

			want := domain.ThemeLight
			if tt.dark {
				want = domain.ThemeDark
			}
			assert.Equal(t, want, prefs.Get().Theme)
		})
	}
}

func TestNightMode_ManualOverrideKeptUntilNextEdge(t *testing.T) {
	ctx := context.Background()
	e, prefs, clock := setupNightMode(t, 22, 0)

	require.True(t, e.Evaluate(ctx))
	prefs.ToggleTheme(ctx)
	require.Equal(t, domain.ThemeLight, prefs.Get().Theme)

	clock.Set(22, 1)
	assert.False(t, e.Evaluate(ctx), "no edge, the reader's choice stands")
	assert.Equal(t, domain.ThemeLight, prefs.Get().Theme)

	clock.Set(6, 0)
	assert.False(t, e.Evaluate(ctx), "leaving the window does not touch a manual light theme")
	assert.Equal(t, domain.ThemeLight, prefs.Get().Theme)

	clock.Set(18, 0)
	assert.True(t, e.Evaluate(ctx))
	assert.Equal(t, domain.ThemeDark, prefs.Get().Theme)
}

func TestNightMode_RevertsOnlyForcedDark(t *testing.T) {
	ctx := context.Background()

	t.Run("Forced dark reverts on exit", func(t *testing.T) {
		e, prefs, clock := setupNightMode(t, 23, 0)
		e.Evaluate(ctx)

		clock.Set(6, 30)
		assert.True(t, e.Evaluate(ctx))
		assert.Equal(t, domain.ThemeLight, prefs.Get().Theme)
		assert.False(t, prefs.Get().NightModeForced)
	})

	t.Run("Manual dark survives exit", func(t *testing.T) {
		e, prefs, clock := setupNightMode(t, 12, 0)
		e.Evaluate(ctx)

		dark := domain.ThemeDark
		_, err := prefs.Update(ctx, domain.SettingsPatch{Theme: &dark})
		require.NoError(t, err)

		clock.Set(19, 0)
		assert.False(t, e.Evaluate(ctx), "already dark")

		clock.Set(7, 0)
		assert.False(t, e.Evaluate(ctx))
		assert.Equal(t, domain.ThemeDark, prefs.Get().Theme)
	})
}

func TestNightMode_WindowEditReevaluates(t *testing.T) {
	ctx := context.Background()
	e, prefs, _ := setupNightMode(t, 12, 0)
	require.False(t, e.Evaluate(ctx))

	start, end := "11:00", "13:00"
	_, err := prefs.Update(ctx, domain.SettingsPatch{NightModeStart: &start, NightModeEnd: &end})
	require.NoError(t, err)

	assert.Equal(t, domain.ThemeDark, prefs.Get().Theme, "the edited window covers now")
}

func TestNightMode_EmptyWindowNeverForces(t *testing.T) {
	ctx := context.Background()
	e, prefs, _ := setupNightMode(t, 20, 0)

	same := "20:00"
	_, err := prefs.Update(ctx, domain.SettingsPatch{NightModeStart: &same, NightModeEnd: &same})
	require.NoError(t, err)

	e.Evaluate(ctx)
	assert.Equal(t, domain.ThemeLight, prefs.Get().Theme)
}

func TestNightMode_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, prefs, _ := setupNightMode(t, 23, 0)

	require.NoError(t, e.Start(ctx))
	assert.True(t, e.IsRunning())
	assert.Equal(t, domain.ThemeDark, prefs.Get().Theme, "Start evaluates immediately")

	require.NoError(t, e.Start(ctx), "second start is a no-op")

	cancel()
	assert.Eventually(t, func() bool { return !e.IsRunning() }, time.Second, 5*time.Millisecond)

	e.Stop()
	assert.False(t, e.IsRunning())
}

// slowPrefs blocks every Get after the first until released, so a cron
// evaluation can be caught in flight.
type slowPrefs struct {
	settings domain.Settings
	calls    atomic.Int32
	entered  chan struct{}
	once     sync.Once
	release  chan struct{}
}

func newSlowPrefs() *slowPrefs {
	return &slowPrefs{
		settings: domain.DefaultSettings(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *slowPrefs) Get() domain.Settings {
	if p.calls.Add(1) > 1 {
		p.once.Do(func() { close(p.entered) })
		<-p.release
	}
	return p.settings
}

func (p *slowPrefs) ApplyNightMode(ctx context.Context, inWindow bool) (domain.Settings, bool) {
	return p.settings, false
}

func TestNightMode_StopDuringRunningEvaluation(t *testing.T) {
	prefs := newSlowPrefs()
	e := NewNightModeEvaluator(prefs)
	e.SetClock(newTestClock(12, 0).Now)
	e.schedule = "@every 1s"

	require.NoError(t, e.Start(context.Background()))

	select {
	case <-prefs.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled evaluation never ran")
	}

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()

	time.Sleep(50 * time.Millisecond)
	close(prefs.release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while an evaluation was running")
	}
	assert.False(t, e.IsRunning())
}

func TestNightMode_ResetInsideWindowForcesAgain(t *testing.T) {
	ctx := context.Background()
	e, prefs, _ := setupNightMode(t, 22, 0)
	prefs.OnReset(e.Resync)

	require.True(t, e.Evaluate(ctx))
	prefs.ToggleTheme(ctx)
	require.Equal(t, domain.ThemeLight, prefs.Get().Theme)

	s := prefs.Reset(ctx)
	assert.Equal(t, domain.ThemeDark, s.Theme)
	assert.True(t, s.NightModeForced)
}
