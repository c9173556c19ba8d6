package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seo-optimizer/blogscore/scorer"
)

// Cache stores score reports by key. Returned reports are shared and must
// not be modified.
type Cache interface {
	Get(ctx context.Context, key string) (*scorer.Report, bool)
	Set(ctx context.Context, key string, report *scorer.Report)
	Len(ctx context.Context) int
	Clear(ctx context.Context) error
	SetTTL(ttl time.Duration)
	TTL() time.Duration
	Name() string
	Close() error
}

// Cache entry with expiration
type cacheEntry struct {
	report    *scorer.Report
	timestamp time.Time
}

// memoryCache is an in-process TTL cache with a size bound. The oldest
// entries are evicted first once the bound is exceeded.
type memoryCache struct {
	mu              sync.RWMutex
	entries         map[string]cacheEntry
	ttl             time.Duration
	maxSize         int
	cleanupInterval time.Duration
	now             func() time.Time
	done            chan struct{}
	closeOnce       sync.Once
}

func newMemoryCache(ttl time.Duration, maxSize int) *memoryCache {
	c := &memoryCache{
		entries:         make(map[string]cacheEntry),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	go c.periodicCleanup()
	return c
}

// periodicCleanup removes expired entries until the cache is closed
func (c *memoryCache) periodicCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (c *memoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			delete(c.entries, key)
		}
	}

	if c.maxSize <= 0 || len(c.entries) <= c.maxSize {
		return
	}

	type aged struct {
		key       string
		timestamp time.Time
	}
	entries := make([]aged, 0, len(c.entries))
	for key, entry := range c.entries {
		entries = append(entries, aged{key, entry.timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})
	for i := 0; i < len(entries)-c.maxSize; i++ {
		delete(c.entries, entries[i].key)
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*scorer.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || c.now().Sub(entry.timestamp) >= c.ttl {
		return nil, false
	}
	return entry.report, true
}

func (c *memoryCache) Set(_ context.Context, key string, report *scorer.Report) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{report: report, timestamp: c.now()}
	over := c.maxSize > 0 && len(c.entries) > c.maxSize
	c.mu.Unlock()

	if over {
		c.cleanup()
	}
}

func (c *memoryCache) Len(context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}

func (c *memoryCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

func (c *memoryCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

func (c *memoryCache) Name() string { return "memory" }

func (c *memoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// RedisConfig configures the Redis report cache
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// redisCache shares reports between service instances through Redis
type redisCache struct {
	client *redis.Client
	prefix string

	mu  sync.RWMutex
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies connectivity
func NewRedisCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "blogscore:report:"
	}
	return &redisCache{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) (*scorer.Report, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var report scorer.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

func (r *redisCache) Set(ctx context.Context, key string, report *scorer.Report) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	r.client.Set(ctx, r.prefix+key, data, r.TTL())
}

func (r *redisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (r *redisCache) Len(ctx context.Context) int {
	keys, err := r.keys(ctx)
	if err != nil {
		return 0
	}
	return len(keys)
}

func (r *redisCache) Clear(ctx context.Context) error {
	keys, err := r.keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached reports: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete cached reports: %w", err)
	}
	return nil
}

func (r *redisCache) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttl = ttl
}

func (r *redisCache) TTL() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ttl
}

func (r *redisCache) Name() string { return "redis" }

func (r *redisCache) Close() error {
	return r.client.Close()
}
