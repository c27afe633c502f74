package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	_ = godotenv.Load("../../../../../.env")

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(envOr("REDIS_HOST", "localhost"), envOr("REDIS_PORT", "6379")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test (Redis down): %v", err)
	}

	rdb.FlushDB(ctx)
	return rdb
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func limitedRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/playback", func(c *gin.Context) {
		c.String(http.StatusOK, "idle")
	})
	return router
}

func sendFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/playback", nil)
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware_Integration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := setupTestRedis(t)
	defer rdb.Close()

	ctx := context.Background()

	tests := []struct {
		name    string
		limit   int
		sends   int
		wantLow int
	}{
		{name: "under the limit", limit: 5, sends: 5, wantLow: 5},
		{name: "over the limit", limit: 2, sends: 4, wantLow: 2},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb.FlushDB(ctx)
			router := limitedRouter(RateLimiterMiddleware(rdb, tt.limit, time.Minute))
			ip := fmt.Sprintf("192.168.7.%d", i+1)

			for n := 1; n <= tt.sends; n++ {
				w := sendFrom(router, ip)
				if n <= tt.wantLow {
					require.Equal(t, http.StatusOK, w.Code, "request %d should pass", n)
					assert.Equal(t, strconv.Itoa(tt.limit), w.Header().Get("X-RateLimit-Limit"))
					assert.Equal(t, strconv.Itoa(tt.limit-n), w.Header().Get("X-RateLimit-Remaining"))
					continue
				}
				assert.Equal(t, http.StatusTooManyRequests, w.Code, "request %d should be blocked", n)
				assert.Contains(t, w.Body.String(), "Too many requests")
				assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
			}
		})
	}

	t.Run("fails open when redis is unreachable", func(t *testing.T) {
		badRdb := redis.NewClient(&redis.Options{Addr: "localhost:9999"})
		defer badRdb.Close()

		w := sendFrom(limitedRouter(RateLimiterMiddleware(badRdb, 1, time.Minute)), "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "idle", w.Body.String())
	})
}

func TestLocalRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := limitedRouter(LocalRateLimiterMiddleware(3, time.Minute))

	for i := 0; i < 3; i++ {
		w := sendFrom(router, "10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	blocked := sendFrom(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusOK, sendFrom(router, "10.0.0.2").Code, "other clients keep their own bucket")
}

func TestLocalRateLimiter_DropsIdleClients(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	l := newLocalLimiter(3, time.Minute, func() time.Time { return now })

	l.limiterFor("10.0.0.1")
	l.limiterFor("10.0.0.2")
	require.Equal(t, 2, l.size())

	now = now.Add(30 * time.Second)
	l.limiterFor("10.0.0.2")
	assert.Equal(t, 2, l.size(), "nothing is idle for a full window yet")

	now = now.Add(40 * time.Second)
	l.limiterFor("10.0.0.3")
	assert.Equal(t, 2, l.size(), "10.0.0.1 was idle for over a window")

	now = now.Add(2 * time.Minute)
	l.limiterFor("10.0.0.3")
	assert.Equal(t, 1, l.size())
}
