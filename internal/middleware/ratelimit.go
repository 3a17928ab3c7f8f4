package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DistributedLimiter is a rate limiter shared between server instances.
type DistributedLimiter interface {
	AllowAction(ctx context.Context, key, action string, rate int, burst int) (bool, error)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per caller. When a distributed limiter is
// configured it is consulted first and the local buckets only serve as a
// fallback when it errors.
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rps      int
	rate     rate.Limit
	burst    int
	shared   DistributedLimiter
	log      *zap.Logger
}

func NewRateLimiter(rps int, shared DistributedLimiter, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rps,
		rate:     rate.Limit(rps),
		burst:    rps * 2,
		shared:   shared,
		log:      log,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter
}

// Allow reports whether the caller identified by key may perform action now.
func (rl *RateLimiter) Allow(ctx context.Context, key, action string) bool {
	if rl.shared != nil {
		ok, err := rl.shared.AllowAction(ctx, key, action, rl.rps, rl.burst)
		if err == nil {
			return ok
		}
		rl.log.Warn("shared rate limiter unavailable, using local buckets", zap.Error(err))
	}
	return rl.getLimiter(action + ":" + key).Allow()
}

// Prune drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Prune(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Cleanup prunes idle buckets every interval until ctx is cancelled.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Prune(interval)
			}
		}
	}()
}

// RateLimitMiddleware limits requests per user, or per client IP before login.
func RateLimitMiddleware(rl *RateLimiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := Identity(c).UserID
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(c.Request.Context(), key, action) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}
