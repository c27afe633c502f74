package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type StorageDriver string

const (
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
	StorageBadger   StorageDriver = "badger"
	StorageMemory   StorageDriver = "memory"
)

type (
	Config struct {
		HTTP
		Storage
		Redis
		Content
		Playback
		Auth
	}

	HTTP struct {
		Port            string
		RateLimit       int // requests per minute per client, 0 disables
		ShutdownTimeout time.Duration
	}
	Storage struct {
		Driver     StorageDriver
		SQLitePath string
		BadgerPath string
		Table      string
		DBHost     string
		DBPort     string
		DBUser     string
		DBPassword string
		DBName     string
	}
	Redis struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
	}
	Content struct {
		BaseURL string
		Timeout time.Duration
	}
	Playback struct {
		ContinuationDelay    time.Duration
		NotificationsEnabled bool
	}
	Auth struct {
		TokenSecret   string
		TokenFile     string
		TokenDuration time.Duration
	}
)

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			log.Printf("Loaded %s", f)
		}
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("rate_limit", 120)
	v.SetDefault("shutdown_timeout", "5s")

	v.SetDefault("storage_driver", string(StorageSQLite))
	v.SetDefault("sqlite_path", "./tilawa.db")
	v.SetDefault("badger_path", "./tilawa-badger")
	v.SetDefault("slot_table", "slots")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "tilawa_user")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "tilawa_db")

	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("content_base_url", "https://equran.id/api/v2")
	v.SetDefault("content_timeout", "15s")

	v.SetDefault("continuation_delay", "500ms")
	v.SetDefault("notifications_enabled", true)

	v.SetDefault("api_token_secret", "")
	v.SetDefault("api_token_file", "")
	v.SetDefault("api_token_duration", "8760h")

	return v
}

// FromViper builds and validates a Config from an already populated viper
// instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTP: HTTP{
			Port:            v.GetString("PORT"),
			RateLimit:       v.GetInt("RATE_LIMIT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Storage: Storage{
			Driver:     StorageDriver(strings.ToLower(v.GetString("STORAGE_DRIVER"))),
			SQLitePath: v.GetString("SQLITE_PATH"),
			BadgerPath: v.GetString("BADGER_PATH"),
			Table:      v.GetString("SLOT_TABLE"),
			DBHost:     v.GetString("DB_HOST"),
			DBPort:     v.GetString("DB_PORT"),
			DBUser:     v.GetString("DB_USER"),
			DBPassword: v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
		},
		Redis: Redis{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Content: Content{
			BaseURL: v.GetString("CONTENT_BASE_URL"),
			Timeout: v.GetDuration("CONTENT_TIMEOUT"),
		},
		Playback: Playback{
			ContinuationDelay:    v.GetDuration("CONTINUATION_DELAY"),
			NotificationsEnabled: v.GetBool("NOTIFICATIONS_ENABLED"),
		},
		Auth: Auth{
			TokenSecret:   v.GetString("API_TOKEN_SECRET"),
			TokenFile:     v.GetString("API_TOKEN_FILE"),
			TokenDuration: v.GetDuration("API_TOKEN_DURATION"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageSQLite, StoragePostgres, StorageBadger, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want sqlite, postgres, badger or memory)", c.Storage.Driver)
	}

	if c.HTTP.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	if c.Playback.ContinuationDelay < 0 {
		return fmt.Errorf("CONTINUATION_DELAY must not be negative")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Auth.TokenSecret != "" && c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("API_TOKEN_DURATION must be positive")
	}
	return nil
}

// AuthEnabled reports whether the API requires a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.TokenSecret != ""
}
