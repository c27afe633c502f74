package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "slots", cfg.Storage.Table)
	assert.Equal(t, 500*time.Millisecond, cfg.Playback.ContinuationDelay)
	assert.Equal(t, 15*time.Second, cfg.Content.Timeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.True(t, cfg.Playback.NotificationsEnabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("CONTINUATION_DELAY", "250ms")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("API_TOKEN_SECRET", "s3cret")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.ContinuationDelay)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.AuthEnabled())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"Unknown Driver", "storage_driver", "mongo"},
		{"Negative Rate Limit", "rate_limit", -1},
		{"Negative Delay", "continuation_delay", "-1s"},
		{"Empty Port", "port", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)

			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SLOT_TABLE=reader_slots\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SLOT_TABLE") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "reader_slots", cfg.Storage.Table)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
