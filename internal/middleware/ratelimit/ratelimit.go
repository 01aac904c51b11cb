// Package ratelimit throttles requests per client with token buckets.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"finadvisor/internal/cache"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per client key in an expiring LRU cache
type Limiter struct {
	limiters *cache.LRUCache[*rate.Limiter]
	manager  *cache.Manager
	limit    rate.Limit
	burst    int
	rejected atomic.Int64
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Burst             int
	MaxClients        int
	IdleTTL           time.Duration
	CleanupInterval   time.Duration
	OnCleaned         func(removed int)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Callers must Stop it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		limiters: cache.NewLRUCache[*rate.Limiter](config.MaxClients, config.IdleTTL),
		manager:  cache.NewManager(config.OnCleaned),
		limit:    rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:    config.Burst,
	}
	rl.manager.Register(rl.limiters)
	rl.manager.StartCleanup(config.CleanupInterval)
	return rl
}

func (rl *Limiter) limiterFor(key string) *rate.Limiter {
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rl.limit, rl.burst)
	})
}

// Allow reports whether a request from key may proceed now
func (rl *Limiter) Allow(key string) bool {
	if rl.limiterFor(key).Allow() {
		return true
	}
	rl.rejected.Add(1)
	return false
}

// RetryAfter is how long key must wait for its next token, rounded up to whole seconds
func (rl *Limiter) RetryAfter(key string) time.Duration {
	tokens := rl.limiterFor(key).Tokens()
	if tokens >= 1 {
		return 0
	}
	secs := (1 - tokens) / float64(rl.limit)
	return time.Duration(math.Ceil(secs)) * time.Second
}

// ActiveClients returns the number of tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.limiters.Size()
}

// Rejected returns how many requests were refused
func (rl *Limiter) Rejected() int64 {
	return rl.rejected.Load()
}

// Stop shuts down the cleanup goroutine
func (rl *Limiter) Stop() {
	rl.manager.Stop()
}

// Middleware creates HTTP middleware for rate limiting. onLimit writes the
// rejection; when nil a plain 429 is sent. Retry-After is always set.
func (rl *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if rl.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			retry := rl.RetryAfter(key)
			if retry < time.Second {
				retry = time.Second
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
