package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/content"
	adapterHTTP "github.com/comitanigiacomo/tilawa-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/notify"
	"github.com/comitanigiacomo/tilawa-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/tilawa-engine/internal/config"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/domain"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/services"
	"github.com/comitanigiacomo/tilawa-engine/internal/core/workers"
)

const tokenIssuer = "tilawa-engine"

type app struct {
	router   *gin.Engine
	persist  *workers.PersistWorker
	night    *workers.NightModeEvaluator
	reminder *workers.ReminderScheduler
	playback *services.PlaybackService
	broker   *notify.Broker

	closers []func() error
}

// openSlots builds the durable backend chosen by the config, optionally
// fronted by redis.
func openSlots(ctx context.Context, cfg *config.Config, rdb *redis.Client) (domain.SlotStore, []func() error, error) {
	var (
		slots   domain.SlotStore
		closers []func() error
	)

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		slots = repository.NewInMemorySlotStore()

	case config.StorageBadger:
		store, err := repository.OpenBadgerSlotStore(cfg.Storage.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		slots = store

	case config.StorageSQLite, config.StoragePostgres:
		sqlDB, err := openSQL(cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, sqlDB.Close)

		store, err := repository.NewSQLSlotStore(sqlDB, cfg.Storage.Table)
		if err != nil {
			return nil, closers, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, closers, err
		}
		slots = store

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if rdb != nil {
		slots = repository.NewCachedSlotStore(slots, rdb)
	}

	return slots, closers, nil
}

func openSQL(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Storage.Driver == config.StoragePostgres {
		log.Println("Connecting to database...")
		return repository.OpenPostgres(cfg.Storage.DBHost, cfg.Storage.DBPort,
			cfg.Storage.DBUser, cfg.Storage.DBPassword, cfg.Storage.DBName)
	}
	return repository.OpenSQLite(cfg.Storage.SQLitePath)
}

func newApp(ctx context.Context, cfg *config.Config, provider domain.ContentProvider) (*app, error) {
	startTime := time.Now()
	a := &app{}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("Warning: Redis unavailable, continuing without cache: %v", err)
		} else {
			rdb = client
			a.closers = append(a.closers, rdb.Close)
		}
	}

	backend, closers, err := openSlots(ctx, cfg, rdb)
	a.closers = append(a.closers, closers...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.persist = workers.NewPersistWorker(backend)
	a.persist.Start(ctx)

	if provider == nil {
		provider = content.NewClient(cfg.Content.BaseURL, cfg.Content.Timeout)
	}

	a.broker = notify.NewBroker(cfg.Playback.NotificationsEnabled)

	prefs := services.NewPreferenceService(ctx, a.persist, a.broker)
	bookmarks := services.NewBookmarkService(ctx, a.persist)
	notes := services.NewNoteService(ctx, a.persist)
	progress := services.NewProgressService(ctx, a.persist)
	history := services.NewHistoryService(ctx, a.persist)
	tracker := services.NewVerseTracker(progress)
	stats := services.NewStatsService(progress, bookmarks, notes, history)

	a.playback = services.NewPlaybackService(services.PlaybackDependencies{
		Prefs:    prefs,
		Content:  provider,
		Tracker:  tracker,
		Notifier: a.broker,
		Delay:    cfg.Playback.ContinuationDelay,
	})

	a.night = workers.NewNightModeEvaluator(prefs)
	a.reminder = workers.NewReminderScheduler(a.broker)

	prefs.OnChange(a.night.OnSettingsChanged)
	prefs.OnChange(a.reminder.OnSettingsChanged)
	prefs.OnReset(a.night.Resync)

	var tokens *services.TokenService
	if cfg.AuthEnabled() {
		tokens = services.NewTokenService(cfg.Auth.TokenSecret, tokenIssuer, cfg.Auth.TokenDuration)
		if cfg.Auth.TokenFile != "" {
			if _, err := tokens.WriteTokenFile(cfg.Auth.TokenFile, "ui"); err != nil {
				a.close()
				return nil, err
			}
			log.Printf("API token written to %s", cfg.Auth.TokenFile)
		}
	}

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		SettingsHandler: adapterHTTP.NewSettingsHandler(prefs, a.reminder),
		BookmarkHandler: adapterHTTP.NewBookmarkHandler(bookmarks),
		NoteHandler:     adapterHTTP.NewNoteHandler(notes),
		ProgressHandler: adapterHTTP.NewProgressHandler(progress, tracker),
		HistoryHandler:  adapterHTTP.NewHistoryHandler(history),
		PlaybackHandler: adapterHTTP.NewPlaybackHandler(a.playback),
		StatsHandler:    adapterHTTP.NewStatsHandler(stats),
		ContentHandler:  adapterHTTP.NewContentHandler(provider),
		EventsHandler:   adapterHTTP.NewEventsHandler(a.broker),
		TokenService:    tokens,
		Slots:           a.persist,
		Redis:           rdb,
		RateLimit:       cfg.HTTP.RateLimit,
		StartTime:       startTime,
	})

	if err := a.night.Start(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.reminder.Reschedule(prefs.Get())

	return a, nil
}

// shutdown stops every timer, flushes pending writes and releases the
// backends. The HTTP server must already be stopped.
func (a *app) shutdown(ctx context.Context) error {
	a.night.Stop()
	a.reminder.Stop()
	a.playback.Stop()
	a.broker.Close()

	var errs []error
	if err := a.persist.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush pending writes: %w", err))
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
