package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
)

type RouterDependencies struct {
	SettingsHandler *SettingsHandler
	BookmarkHandler *BookmarkHandler
	NoteHandler     *NoteHandler
	ProgressHandler *ProgressHandler
	HistoryHandler  *HistoryHandler
	PlaybackHandler *PlaybackHandler
	StatsHandler    *StatsHandler
	ContentHandler  *ContentHandler
	EventsHandler   *EventsHandler

	// TokenService is nil when the API runs without authentication.
	TokenService *services.TokenService
	Slots        domain.SlotStore
	Redis        *redis.Client
	RateLimit    int
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.RateLimit > 0 {
		if deps.Redis != nil {
			router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, time.Minute))
		} else {
			router.Use(middleware.LocalRateLimiterMiddleware(deps.RateLimit, time.Minute))
		}
	}

	router.GET("/health", func(c *gin.Context) {
		storageStatus := "connected"
		if err := deps.Slots.Ping(c.Request.Context()); err != nil {
			storageStatus = "unreachable"
		}

		redisStatus := cache.Status(c.Request.Context(), deps.Redis)

		statusCode := http.StatusOK
		if storageStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":  "ok",
			"storage": storageStatus,
			"redis":   redisStatus,
			"uptime":  time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")
	if deps.TokenService != nil {
		apiV1.Use(middleware.AuthMiddleware(deps.TokenService))
	}
	{
		deps.SettingsHandler.RegisterRoutes(apiV1)
		deps.BookmarkHandler.RegisterRoutes(apiV1)
		deps.NoteHandler.RegisterRoutes(apiV1)
		deps.ProgressHandler.RegisterRoutes(apiV1)
		deps.HistoryHandler.RegisterRoutes(apiV1)
		deps.PlaybackHandler.RegisterRoutes(apiV1)
		deps.StatsHandler.RegisterRoutes(apiV1)
		deps.ContentHandler.RegisterRoutes(apiV1)
		deps.EventsHandler.RegisterRoutes(apiV1)

		if deps.TokenService != nil {
			NewAuthHandler(deps.TokenService).RegisterRoutes(apiV1)
		}
	}

	return router
}
