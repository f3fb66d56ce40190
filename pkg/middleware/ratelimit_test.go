package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSlidingWindowFirstRequest(t *testing.T) {
	store := NewSlidingWindowStore()

	allowed, count := store.CheckSlidingWindow("test-key", 10, 60*time.Second)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
}

func TestSlidingWindowIncrements(t *testing.T) {
	store := NewSlidingWindowStore()

	store.CheckSlidingWindow("test-key", 10, 60*time.Second)
	allowed, count := store.CheckSlidingWindow("test-key", 10, 60*time.Second)
	assert.True(t, allowed)
	assert.Equal(t, 2, count)
}

func TestSlidingWindowExhaustion(t *testing.T) {
	store := NewSlidingWindowStore()

	// limit calls are all admitted with strictly increasing counts.
	for i := 1; i <= 5; i++ {
		allowed, count := store.CheckSlidingWindow("k", 5, 60*time.Second)
		assert.True(t, allowed, "call %d should be allowed", i)
		assert.Equal(t, i, count)
	}

	// The limit+1-th call is denied and still reports the post-append count.
	allowed, count := store.CheckSlidingWindow("k", 5, 60*time.Second)
	assert.False(t, allowed)
	assert.Equal(t, 6, count)
}

func TestSlidingWindowExpiry(t *testing.T) {
	store := NewSlidingWindowStore()
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		store.CheckSlidingWindow("k", 3, 60*time.Second)
	}
	allowed, _ := store.CheckSlidingWindow("k", 3, 60*time.Second)
	require.False(t, allowed)

	// Advance past the window; the exhausted key becomes admissible again.
	current = current.Add(61 * time.Second)
	allowed, count := store.CheckSlidingWindow("k", 3, 60*time.Second)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
}

func TestSlidingWindowBoundaryExcluded(t *testing.T) {
	store := NewSlidingWindowStore()
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.CheckSlidingWindow("k", 2, 60*time.Second)

	// A timestamp exactly window old is outside the half-open interval.
	current = current.Add(60 * time.Second)
	_, count := store.CheckSlidingWindow("k", 2, 60*time.Second)
	assert.Equal(t, 1, count)
}

func TestCleanupOldEntries(t *testing.T) {
	store := NewSlidingWindowStore()
	store.CheckSlidingWindow("old-key", 10, 60*time.Second)
	store.CheckSlidingWindow("other-key", 10, 60*time.Second)

	// max age zero removes all keys immediately.
	store.CleanupOldEntries(0)

	store.mu.Lock()
	remaining := len(store.windows)
	store.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestCleanupKeepsRecentKeys(t *testing.T) {
	store := NewSlidingWindowStore()
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.CheckSlidingWindow("stale", 10, time.Minute)
	current = current.Add(10 * time.Minute)
	store.CheckSlidingWindow("fresh", 10, time.Minute)

	store.CleanupOldEntries(5 * time.Minute)

	store.mu.Lock()
	_, staleExists := store.windows["stale"]
	_, freshExists := store.windows["fresh"]
	store.mu.Unlock()
	assert.False(t, staleExists)
	assert.True(t, freshExists)
}

func TestSlidingWindowConcurrentCounts(t *testing.T) {
	store := NewSlidingWindowStore()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			store.CheckSlidingWindow("shared", 1000, time.Minute)
		}()
	}
	wg.Wait()

	_, count := store.CheckSlidingWindow("shared", 1000, time.Minute)
	assert.Equal(t, goroutines+1, count, "concurrent checks must not lose or duplicate entries")
}

func TestRetryAfter(t *testing.T) {
	store := NewSlidingWindowStore()
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.CheckSlidingWindow("k", 1, 60*time.Second)
	current = current.Add(20 * time.Second)

	assert.Equal(t, 40*time.Second, store.RetryAfter("k", 60*time.Second))
	assert.Zero(t, store.RetryAfter("unknown", 60*time.Second))
}

func newLimitedRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	return req.WithContext(reqctx.WithClientIP(req.Context(), key))
}

func TestRateLimitMiddlewareAllows(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   5,
		RequestsPerHour:     100,
		EnableSlidingWindow: true,
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
		require.Equal(t, http.StatusOK, rr.Code, "request %d should pass", i+1)
	}
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   3,
		EnableSlidingWindow: true,
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddlewareBurstWindow(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		BurstLimit:          2,
		WindowSize:          10 * time.Second,
		RequestsPerMinute:   100,
		EnableSlidingWindow: true,
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddlewareKeysAreIndependent(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   1,
		EnableSlidingWindow: true,
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("1.1.1.1"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("1.1.1.1"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// A different client key is unaffected.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("2.2.2.2"))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   1,
		EnableSlidingWindow: false,
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimitMiddlewareCustomStrategy(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   1,
		EnableSlidingWindow: true,
		Strategy:            common.StrategyCustom,
		KeyExtractor: func(r *http.Request) (string, error) {
			return r.Header.Get("X-API-Key"), nil
		},
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	req.Header.Set("X-API-Key", "caller-a")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), http.StatusText(http.StatusTooManyRequests))
}

func TestRateLimitMiddlewareExceededHandler(t *testing.T) {
	store := NewSlidingWindowStore()
	config := &common.RateLimitConfig{
		RequestsPerMinute:   1,
		EnableSlidingWindow: true,
		ExceededHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}),
	}

	handler := RateLimit(config, store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newLimitedRequest("1.2.3.4"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestLeakyBucketLimiter(t *testing.T) {
	limiter := NewLeakyBucketLimiter()

	allowed, _, _ := limiter.Allow("test-key", 100, time.Second)
	assert.True(t, allowed, "first request should pass")

	// A second key gets its own bucket.
	allowed, _, _ = limiter.Allow("other-key", 100, time.Second)
	assert.True(t, allowed)

	_, exists := limiter.limiters.Load("test-key-100")
	assert.True(t, exists, "limiter should be cached under the composite key")
}
