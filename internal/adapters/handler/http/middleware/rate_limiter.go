package middleware

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiterMiddleware counts requests per client IP in fixed redis windows.
// Redis errors let the request through.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[RATE] Redis error (rate limiter skipped): %v", err)
			c.Next()
			return
		}

		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("[RATE] Redis expire error: %v. Deleting key to avoid zombie.", err)
				rdb.Del(ctx, key)
				c.Next()
				return
			}
		}

		ttl, err := rdb.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int64(limit)-count)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

		if count > int64(limit) {
			tooManyRequests(c, int(ttl.Seconds()))
			return
		}

		c.Next()
	}
}

// LocalRateLimiterMiddleware is the in-process variant used when redis is
// disabled: one token bucket per client IP refilled at limit per window.
func LocalRateLimiterMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return newLocalLimiter(limit, window, time.Now).middleware()
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter drops buckets idle for a full window. Such a bucket has
// refilled completely, so a fresh one behaves the same.
type localLimiter struct {
	limit  int
	window time.Duration
	every  rate.Limit
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*localClient
	lastSweep time.Time
}

func newLocalLimiter(limit int, window time.Duration, now func() time.Time) *localLimiter {
	return &localLimiter{
		limit:     limit,
		window:    window,
		every:     rate.Every(window / time.Duration(limit)),
		now:       now,
		clients:   make(map[string]*localClient),
		lastSweep: now(),
	}
}

func (l *localLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		for key, cl := range l.clients {
			if now.Sub(cl.lastSeen) >= l.window {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[ip]
	if !ok {
		cl = &localClient{limiter: rate.NewLimiter(l.every, l.limit)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *localLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := l.limiterFor(c.ClientIP())

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", l.limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, int(lim.Tokens())-1)))

		if !lim.Allow() {
			retry := lim.Reserve()
			delay := retry.Delay()
			retry.Cancel()
			tooManyRequests(c, int(delay.Seconds())+1)
			return
		}

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, retryIn int) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"status":     "error",
		"message":    "Too many requests. Slow down!",
		"retry_in_s": retryIn,
	})
}
