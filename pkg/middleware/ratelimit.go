// Package middleware provides the HTTP middleware components of the apiforge
// framework: request context stamping, rate limiting, authentication,
// security headers, and the usual recovery/logging/CORS/timeout wrappers.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/reqctx"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// SlidingWindowStore maintains per-key sliding-window request counters.
// It is shared mutable state across all in-flight requests; the whole
// read-purge-append-compare sequence for a key runs under one lock so
// concurrent checks never under- or over-count.
type SlidingWindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	// now is the clock source, replaceable in tests to simulate time.
	now func() time.Time
}

// NewSlidingWindowStore creates an empty store using the wall clock.
func NewSlidingWindowStore() *SlidingWindowStore {
	return &SlidingWindowStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// CheckSlidingWindow records a request for key and decides admissibility.
// It appends the current timestamp, discards timestamps older than window,
// and compares the resulting count to limit. The returned count includes the
// request being recorded, so the first request for a key reports count 1.
//
// The window is half-open: a timestamp exactly window old is excluded.
func (s *SlidingWindowStore) CheckSlidingWindow(key string, limit int, window time.Duration) (allowed bool, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	entries := s.windows[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	s.windows[key] = kept

	count = len(kept)
	return count <= limit, count
}

// RetryAfter reports how long until the oldest in-window entry for key falls
// out of the window, i.e. when the key regains capacity. Returns zero if the
// key has no entries.
func (s *SlidingWindowStore) RetryAfter(key string, window time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.windows[key]
	if len(entries) == 0 {
		return 0
	}
	wait := entries[0].Add(window).Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	return wait
}

// CleanupOldEntries removes any key whose most recent timestamp is older
// than maxAge, bounding memory for idle keys. A maxAge of zero removes
// every key.
func (s *SlidingWindowStore) CleanupOldEntries(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	for key, entries := range s.windows {
		if len(entries) == 0 || !entries[len(entries)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}

// StartCleanup runs a periodic cleanup sweep until ctx is cancelled.
func (s *SlidingWindowStore) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupOldEntries(maxAge)
			}
		}
	}()
}

// Allow implements common.RateLimiter on top of the sliding window.
func (s *SlidingWindowStore) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	allowed, count := s.CheckSlidingWindow(key, limit, window)
	var reset time.Duration
	if !allowed {
		reset = s.RetryAfter(key, window)
	}
	return allowed, count, reset
}

// Ensure SlidingWindowStore implements the common.RateLimiter interface.
var _ common.RateLimiter = (*SlidingWindowStore)(nil)

// LeakyBucketLimiter implements common.RateLimiter using Uber's ratelimit
// library. It is an alternative to the sliding window for callers that want
// paced admission rather than trailing-window counting.
type LeakyBucketLimiter struct {
	limiters sync.Map // composite key -> ratelimit.Limiter
	mu       sync.Mutex
}

// NewLeakyBucketLimiter creates a new leaky-bucket rate limiter.
func NewLeakyBucketLimiter() *LeakyBucketLimiter {
	return &LeakyBucketLimiter{}
}

// getLimiter gets or creates a limiter for the key at the given rate.
// The RPS is part of the map key so the same base key can carry different
// per-window rates.
func (l *LeakyBucketLimiter) getLimiter(key string, rps int) ratelimit.Limiter {
	compositeKey := key + "-" + strconv.Itoa(rps)

	if limiter, ok := l.limiters.Load(compositeKey); ok {
		return limiter.(ratelimit.Limiter)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the lock.
	if limiter, ok := l.limiters.Load(compositeKey); ok {
		return limiter.(ratelimit.Limiter)
	}

	limiter := ratelimit.New(rps)
	l.limiters.Store(compositeKey, limiter)
	return limiter
}

// Allow checks admissibility under the leaky bucket. The count it reports is
// an estimate derived from the pacing delay, since leaky buckets do not keep
// discrete per-window counts.
func (l *LeakyBucketLimiter) Allow(key string, limit int, window time.Duration) (bool, int, time.Duration) {
	rps := int(float64(limit) / window.Seconds())
	if rps < 1 {
		rps = 1
	}

	limiter := l.getLimiter(key, rps)

	now := time.Now()
	nextAvailable := limiter.Take()
	waitTime := nextAvailable.Sub(now)

	used := int(float64(limit) * waitTime.Seconds() / window.Seconds())
	if used < 0 {
		used = 0
	}

	// A negligible wait means the bucket had capacity.
	allowed := waitTime <= time.Millisecond

	reset := waitTime
	if reset < 0 {
		reset = 0
	}
	return allowed, used, reset
}

var _ common.RateLimiter = (*LeakyBucketLimiter)(nil)

// limitWindow pairs a named admission window with its ceiling.
type limitWindow struct {
	bucket string
	limit  int
	window time.Duration
}

// ceilings expands the config into the set of windows a request must clear.
func ceilings(config *common.RateLimitConfig) []limitWindow {
	var ws []limitWindow
	if config.BurstLimit > 0 && config.WindowSize > 0 {
		ws = append(ws, limitWindow{"burst", config.BurstLimit, config.WindowSize})
	}
	if config.RequestsPerMinute > 0 {
		ws = append(ws, limitWindow{"minute", config.RequestsPerMinute, time.Minute})
	}
	if config.RequestsPerHour > 0 {
		ws = append(ws, limitWindow{"hour", config.RequestsPerHour, time.Hour})
	}
	return ws
}

// rateLimitKey derives the client key for the request per the configured
// strategy. Falls back to RemoteAddr when the preferred source is missing.
func rateLimitKey(r *http.Request, config *common.RateLimitConfig, logger *zap.Logger) (string, bool) {
	switch config.Strategy {
	case common.StrategyUser:
		if _, userURN, ok := reqctx.IdentityFromRequest(r); ok && userURN != "" {
			return userURN, true
		}
		// No identity yet; fall back to IP so unauthenticated traffic is
		// still bounded.
		if ip, ok := reqctx.ClientIP(r.Context()); ok && ip != "" {
			return ip, true
		}
		return r.RemoteAddr, true

	case common.StrategyCustom:
		if config.KeyExtractor == nil {
			logger.Error("KeyExtractor is required for StrategyCustom rate limiting",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			return "", false
		}
		key, err := config.KeyExtractor(r)
		if err != nil || key == "" {
			logger.Error("Custom key extractor failed",
				zap.Error(err),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			return "", false
		}
		return key, true

	default: // StrategyIP
		if ip, ok := reqctx.ClientIP(r.Context()); ok && ip != "" {
			return ip, true
		}
		logger.Warn("Client IP not found in context, falling back to RemoteAddr for rate limiting",
			zap.String("remote_addr", r.RemoteAddr),
		)
		return r.RemoteAddr, true
	}
}

// RateLimit creates a middleware enforcing the configured per-minute,
// per-hour, and burst ceilings against the store. A request is rejected with
// 429 Too Many Requests as soon as any window denies it; the store itself
// never errors, so the only failure mode is the admission decision.
func RateLimit(config *common.RateLimitConfig, store *SlidingWindowStore, logger *zap.Logger) common.Middleware {
	if config == nil || !config.EnableSlidingWindow {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if store == nil {
		panic("RateLimit middleware requires a non-nil SlidingWindowStore")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	windows := ceilings(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := rateLimitKey(r, config, logger)
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			for _, lw := range windows {
				bucketKey := lw.bucket + ":" + key
				allowed, count := store.CheckSlidingWindow(bucketKey, lw.limit, lw.window)

				remaining := lw.limit - count
				if remaining < 0 {
					remaining = 0
				}
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(lw.limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

				if allowed {
					continue
				}

				retryAfter := int64(store.RetryAfter(bucketKey, lw.window).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))

				logger.Warn("Rate limit exceeded",
					zap.String("bucket", lw.bucket),
					zap.String("key", key),
					zap.Int("limit", lw.limit),
					zap.Duration("window", lw.window),
					zap.Int("count", count),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)

				if config.ExceededHandler != nil {
					config.ExceededHandler.ServeHTTP(w, r)
				} else {
					http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
