package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per client IP token bucket
type RateLimiter struct {
	tokens         map[string]float64
	lastRefill     map[string]time.Time
	mu             sync.Mutex
	rate           float64 // tokens per second
	bucketSize     float64 // maximum tokens
	refillInterval time.Duration
	now            func() time.Time
}

func NewRateLimiter(rate float64, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:         make(map[string]float64),
		lastRefill:     make(map[string]time.Time),
		rate:           rate,
		bucketSize:     bucketSize,
		refillInterval: time.Second,
		now:            time.Now,
	}
}

// Allow consumes one token for key and reports whether one was available
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if _, exists := rl.lastRefill[key]; !exists {
		rl.tokens[key] = rl.bucketSize
		rl.lastRefill[key] = now
	}

	elapsed := now.Sub(rl.lastRefill[key])
	refill := float64(elapsed) / float64(rl.refillInterval) * rl.rate
	rl.tokens[key] = min(rl.bucketSize, rl.tokens[key]+refill)
	rl.lastRefill[key] = now

	if rl.tokens[key] < 1 {
		return false
	}
	rl.tokens[key]--
	return true
}

// Prune forgets clients whose bucket has been idle longer than idle
func (rl *RateLimiter) Prune(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := rl.now().Add(-idle)
	for key, last := range rl.lastRefill {
		if last.Before(cutoff) {
			delete(rl.lastRefill, key)
			delete(rl.tokens, key)
			removed++
		}
	}
	return removed
}

// PruneEvery runs Prune every interval until ctx is done
func (rl *RateLimiter) PruneEvery(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Prune(idle)
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
