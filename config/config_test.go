package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "DEV_MODE", "DATA_DIR", "SITE_HOSTNAME", "LOG_LEVEL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL", "CACHE_MAX_ENTRIES",
	"RATE_LIMIT", "RATE_BURST", "FETCH_TIMEOUT", "STATS_RETENTION_MONTHS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "8082", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 12, cfg.StatsRetentionMonths)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SITE_HOSTNAME", "blog.example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("RATE_LIMIT", "0.5")
	t.Setenv("RATE_BURST", "3")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("STATS_RETENTION_MONTHS", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "blog.example.com", cfg.SiteHostname)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, 3.0, cfg.RateBurst)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.StatsRetentionMonths)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"DEV_MODE":               "sometimes",
		"REDIS_DB":               "one",
		"CACHE_TTL":              "forever",
		"GIN_MODE":               "turbo",
		"RATE_BURST":             "0",
		"STATS_RETENTION_MONTHS": "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to ""
	os.Unsetenv("PORT")
	os.Unsetenv("SITE_HOSTNAME")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7070\nSITE_HOSTNAME=cms.example.com\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "cms.example.com", cfg.SiteHostname)
}
