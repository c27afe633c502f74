package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
)

const DefaultBaseURL = "https://equran.id/api/v2"

var _ domain.ContentProvider = (*Client)(nil)

var ErrUnexpectedStatus = errors.New("unexpected status from content api")

// Client reads chapters, verses and commentary from the equran API.
// Concurrent requests for the same resource share one round trip.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	group       singleflight.Group
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type surah struct {
	Nomor       int    `json:"nomor"`
	Nama        string `json:"nama"`
	NamaLatin   string `json:"namaLatin"`
	JumlahAyat  int    `json:"jumlahAyat"`
	TempatTurun string `json:"tempatTurun"`
	Arti        string `json:"arti"`
	Deskripsi   string `json:"deskripsi"`
	Audio       string `json:"audio"`
}

type ayat struct {
	NomorAyat     int               `json:"nomorAyat"`
	TeksArab      string            `json:"teksArab"`
	TeksLatin     string            `json:"teksLatin"`
	TeksIndonesia string            `json:"teksIndonesia"`
	Audio         map[string]string `json:"audio"`
}

type surahDetail struct {
	surah
	Ayat []ayat `json:"ayat"`
}

type tafsirAyat struct {
	NomorAyat int `json:"nomorAyat"`
	Tafsir    struct {
		ID   string `json:"id"`
		Teks string `json:"teks"`
	} `json:"tafsir"`
}

type tafsir struct {
	surah
	Ayat []tafsirAyat `json:"ayat"`
}

func (s surah) toDomain() domain.Chapter {
	return domain.Chapter{
		ID:           s.Nomor,
		Name:         s.Nama,
		LatinName:    s.NamaLatin,
		VerseCount:   s.JumlahAyat,
		RevealedIn:   s.TempatTurun,
		Meaning:      s.Arti,
		Description:  s.Deskripsi,
		ChapterAudio: s.Audio,
	}
}

func (c *Client) ChapterList(ctx context.Context) ([]domain.Chapter, error) {
	v, err := c.shared(ctx, "surat", func(ctx context.Context) (any, error) {
		var out envelope[[]surah]
		if err := c.get(ctx, "/surat", &out); err != nil {
			return nil, err
		}

		chapters := make([]domain.Chapter, 0, len(out.Data))
		for _, s := range out.Data {
			chapters = append(chapters, s.toDomain())
		}
		return chapters, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Chapter), nil
}

func (c *Client) ChapterDetail(ctx context.Context, id int) (*domain.ChapterDetail, error) {
	if err := domain.ValidateChapterID(id); err != nil {
		return nil, err
	}

	v, err := c.shared(ctx, "surat/"+strconv.Itoa(id), func(ctx context.Context) (any, error) {
		var out envelope[surahDetail]
		if err := c.get(ctx, "/surat/"+strconv.Itoa(id), &out); err != nil {
			return nil, err
		}

		detail := &domain.ChapterDetail{
			Chapter: out.Data.toDomain(),
			Verses:  make([]domain.Verse, 0, len(out.Data.Ayat)),
		}
		for _, a := range out.Data.Ayat {
			detail.Verses = append(detail.Verses, domain.Verse{
				Number:          a.NomorAyat,
				ArabicText:      a.TeksArab,
				LatinText:       a.TeksLatin,
				TranslationText: a.TeksIndonesia,
				Audio:           a.Audio,
			})
		}
		if detail.VerseCount == 0 {
			detail.VerseCount = len(detail.Verses)
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ChapterDetail), nil
}

func (c *Client) Commentary(ctx context.Context, id int) (*domain.Commentary, error) {
	if err := domain.ValidateChapterID(id); err != nil {
		return nil, err
	}

	v, err := c.shared(ctx, "tafsir/"+strconv.Itoa(id), func(ctx context.Context) (any, error) {
		var out envelope[tafsir]
		if err := c.get(ctx, "/tafsir/"+strconv.Itoa(id), &out); err != nil {
			return nil, err
		}

		commentary := &domain.Commentary{
			Chapter: out.Data.toDomain(),
			Entries: make([]domain.CommentaryEntry, 0, len(out.Data.Ayat)),
		}
		for _, a := range out.Data.Ayat {
			commentary.Entries = append(commentary.Entries, domain.CommentaryEntry{
				VerseNumber: a.NomorAyat,
				Text:        a.Tafsir.Teks,
			})
		}
		return commentary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Commentary), nil
}

// shared runs fn once for all concurrent callers of key. fn gets a context
// that outlives the caller who started it, so one caller giving up does not
// fail the others; the http client timeout still bounds the round trip.
// Each caller stops waiting when its own context is done.
func (c *Client) shared(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrContentUnavailable, key, ctx.Err())
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrContentUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w: GET %s returned %d", domain.ErrContentUnavailable, ErrUnexpectedStatus, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrContentUnavailable, path, err)
	}
	return nil
}
