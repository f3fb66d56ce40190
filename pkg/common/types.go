// Package common provides shared types used across the apiforge framework.
package common

import (
	"net/http"
	"time"
)

// Middleware defines the type for HTTP middleware functions.
// It takes an http.Handler and returns an http.Handler.
type Middleware func(http.Handler) http.Handler

// KeyStrategy defines how the rate limiter identifies clients.
type KeyStrategy int

const (
	// StrategyIP uses the client's IP address as the rate limit key.
	// Requires the client IP middleware to be applied first.
	StrategyIP KeyStrategy = iota
	// StrategyUser uses the authenticated user's URN from the request context.
	StrategyUser
	// StrategyCustom uses a custom key extractor function.
	StrategyCustom
)

// RateLimiter defines the interface for rate limiting algorithms.
type RateLimiter interface {
	// Allow checks if a request identified by key is admissible for the given
	// limit and window. It returns whether the request is allowed, the number
	// of requests counted in the current window (including this one), and the
	// approximate time until the window has capacity again.
	Allow(key string, limit int, window time.Duration) (allowed bool, count int, reset time.Duration)
}

// RateLimitConfig defines the admission ceilings enforced by the rate limit
// middleware. A request must be admitted by every configured window.
type RateLimitConfig struct {
	// RequestsPerMinute is the ceiling for the trailing one-minute window.
	RequestsPerMinute int

	// RequestsPerHour is the ceiling for the trailing one-hour window.
	RequestsPerHour int

	// BurstLimit is the ceiling for the short burst window of WindowSize.
	BurstLimit int

	// WindowSize is the duration of the burst window.
	WindowSize time.Duration

	// EnableSlidingWindow toggles the sliding-window algorithm. When false the
	// middleware passes every request through.
	EnableSlidingWindow bool

	// Strategy determines how clients are identified for rate limiting.
	Strategy KeyStrategy

	// KeyExtractor provides a custom function to derive the rate limit key
	// from the request. Required only when Strategy is StrategyCustom.
	KeyExtractor func(r *http.Request) (key string, err error)

	// ExceededHandler is an optional http.Handler invoked when a ceiling is
	// exceeded. If nil, a default 429 Too Many Requests response is sent.
	ExceededHandler http.Handler
}

// DefaultRateLimitConfig returns a config with the framework defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute:   60,
		RequestsPerHour:     1000,
		BurstLimit:          10,
		WindowSize:          10 * time.Second,
		EnableSlidingWindow: true,
		Strategy:            StrategyIP,
	}
}
