package http_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/tilawa-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/notify"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type MockContent struct {
	chapters map[int]*domain.ChapterDetail
	fail     bool
}

// NewMockContent serves chapter 1 with 7 verses and chapter 112 with 4, each
// verse carrying audio from narrators "01" and "05".
func NewMockContent() *MockContent {
	m := &MockContent{chapters: make(map[int]*domain.ChapterDetail)}
	for id, count := range map[int]int{1: 7, 112: 4} {
		detail := &domain.ChapterDetail{
			Chapter: domain.Chapter{ID: id, Name: fmt.Sprintf("chapter-%d", id), LatinName: fmt.Sprintf("Chapter %d", id), VerseCount: count},
		}
		for v := 1; v <= count; v++ {
			detail.Verses = append(detail.Verses, domain.Verse{
				Number:     v,
				ArabicText: fmt.Sprintf("arabic %d:%d", id, v),
				Audio: map[string]string{
					"01": fmt.Sprintf("https://cdn/%03d%03d-01.mp3", id, v),
					"05": fmt.Sprintf("https://cdn/%03d%03d-05.mp3", id, v),
				},
			})
		}
		m.chapters[id] = detail
	}
	return m
}

func (m *MockContent) ChapterList(ctx context.Context) ([]domain.Chapter, error) {
	if m.fail {
		return nil, fmt.Errorf("%w: offline", domain.ErrContentUnavailable)
	}
	return []domain.Chapter{m.chapters[1].Chapter, m.chapters[112].Chapter}, nil
}

func (m *MockContent) ChapterDetail(ctx context.Context, id int) (*domain.ChapterDetail, error) {
	if m.fail {
		return nil, fmt.Errorf("%w: offline", domain.ErrContentUnavailable)
	}
	d, ok := m.chapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: chapter %d missing", domain.ErrContentUnavailable, id)
	}
	return d, nil
}

func (m *MockContent) Commentary(ctx context.Context, id int) (*domain.Commentary, error) {
	d, err := m.ChapterDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Commentary{
		Chapter: d.Chapter,
		Entries: []domain.CommentaryEntry{{VerseNumber: 1, Text: "commentary"}},
	}, nil
}

type fixedReminder struct {
	at time.Time
	ok bool
}

func (f fixedReminder) NextFire() (time.Time, bool) { return f.at, f.ok }

type testApp struct {
	router   *gin.Engine
	slots    *repository.InMemorySlotStore
	content  *MockContent
	broker   *notify.Broker
	prefs    *services.PreferenceService
	progress *services.ProgressService
	playback *services.PlaybackService
}

type appOption func(*adapterHTTP.RouterDependencies)

func withTokens(tokens *services.TokenService) appOption {
	return func(d *adapterHTTP.RouterDependencies) { d.TokenService = tokens }
}

func withRateLimit(limit int) appOption {
	return func(d *adapterHTTP.RouterDependencies) { d.RateLimit = limit }
}

func setupApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	slots := repository.NewInMemorySlotStore()
	content := NewMockContent()
	broker := notify.NewBroker(true)
	t.Cleanup(broker.Close)

	prefs := services.NewPreferenceService(ctx, slots, broker)
	bookmarks := services.NewBookmarkService(ctx, slots)
	notes := services.NewNoteService(ctx, slots)
	progress := services.NewProgressService(ctx, slots)
	history := services.NewHistoryService(ctx, slots)
	tracker := services.NewVerseTracker(progress)
	playback := services.NewPlaybackService(services.PlaybackDependencies{
		Prefs:    prefs,
		Content:  content,
		Tracker:  tracker,
		Notifier: broker,
		Delay:    time.Millisecond,
	})
	t.Cleanup(func() { playback.Stop() })
	stats := services.NewStatsService(progress, bookmarks, notes, history)

	deps := adapterHTTP.RouterDependencies{
		SettingsHandler: adapterHTTP.NewSettingsHandler(prefs, fixedReminder{}),
		BookmarkHandler: adapterHTTP.NewBookmarkHandler(bookmarks),
		NoteHandler:     adapterHTTP.NewNoteHandler(notes),
		ProgressHandler: adapterHTTP.NewProgressHandler(progress, tracker),
		HistoryHandler:  adapterHTTP.NewHistoryHandler(history),
		PlaybackHandler: adapterHTTP.NewPlaybackHandler(playback),
		StatsHandler:    adapterHTTP.NewStatsHandler(stats),
		ContentHandler:  adapterHTTP.NewContentHandler(content),
		EventsHandler:   adapterHTTP.NewEventsHandler(broker),
		Slots:           slots,
		StartTime:       time.Now(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testApp{
		router:   adapterHTTP.NewRouter(deps),
		slots:    slots,
		content:  content,
		broker:   broker,
		prefs:    prefs,
		progress: progress,
		playback: playback,
	}
}

func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
