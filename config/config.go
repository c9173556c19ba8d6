package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config holds the service settings read from the environment
type Config struct {
	Port         string
	GinMode      string
	DevMode      bool
	DataDir      string
	SiteHostname string
	LogLevel     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheTTL        time.Duration
	CacheMaxEntries int
	RateLimit       float64
	RateBurst       float64
	FetchTimeout    time.Duration

	// StatsRetentionMonths is how many months before the current one keep
	// their statistics
	StatsRetentionMonths int
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		Port:            "8082",
		GinMode:         gin.ReleaseMode,
		DataDir:         "./data",
		LogLevel:        "info",
		CacheTTL:        30 * time.Minute,
		CacheMaxEntries: 1000,
		RateLimit:       2,
		RateBurst:       5,
		FetchTimeout:    15 * time.Second,

		StatsRetentionMonths: 12,
	}
}

// LoadEnvFiles loads .env.development, falling back to .env. Missing files
// are not an error; it reports whether one was loaded.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.development"); err == nil {
		return true
	}
	return godotenv.Load() == nil
}

// Load reads the configuration from the environment after loading any .env file
func Load() (*Config, error) {
	LoadEnvFiles()
	return FromEnv()
}

// FromEnv reads the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.SiteHostname = getEnv("SITE_HOSTNAME", cfg.SiteHostname)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)

	var err error
	if cfg.DevMode, err = getEnvBool("DEV_MODE", cfg.DevMode); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", cfg.RedisDB); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = getEnvInt("CACHE_MAX_ENTRIES", cfg.CacheMaxEntries); err != nil {
		return nil, err
	}
	if cfg.StatsRetentionMonths, err = getEnvInt("STATS_RETENTION_MONTHS", cfg.StatsRetentionMonths); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getEnvFloat("RATE_LIMIT", cfg.RateLimit); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getEnvFloat("RATE_BURST", cfg.RateBurst); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.StatsRetentionMonths < 0 {
		return fmt.Errorf("STATS_RETENTION_MONTHS must not be negative")
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("RATE_LIMIT must be positive and RATE_BURST at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
