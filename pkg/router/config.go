package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/metrics"
	"github.com/apiforge/apiforge/pkg/middleware"
)

// AuthLevel controls authentication enforcement for a route.
type AuthLevel int

const (
	// NoAuth skips authentication entirely.
	NoAuth AuthLevel = iota
	// AuthRequired rejects requests without a valid bearer token.
	AuthRequired
)

// Ptr returns a pointer to the level, for use in route definitions.
func Ptr(level AuthLevel) *AuthLevel {
	return &level
}

// RouterConfig configures a Router. Zero values disable the corresponding
// feature.
type RouterConfig struct {
	// ServiceName is used as the logger name and metrics namespace.
	ServiceName string

	// Logger for the router and all middleware. Defaults to a no-op logger.
	Logger *zap.Logger

	// GlobalTimeout applies to every route without its own timeout.
	GlobalTimeout time.Duration

	// GlobalMaxBodySize applies to every route without its own limit.
	GlobalMaxBodySize int64

	// GlobalRateLimit applies to every route without its own rate limit.
	GlobalRateLimit *common.RateLimitConfig

	// Auth enables the authentication middleware for routes whose
	// effective auth level is AuthRequired.
	Auth *middleware.AuthConfig

	// CORS enables cross-origin handling when non-nil.
	CORS *middleware.CORSOptions

	// SecurityHeaders configures the security header middleware. Nil uses
	// the defaults.
	SecurityHeaders *middleware.SecurityHeadersConfig

	// Metrics enables request instrumentation and, when MetricsPath is
	// set, mounts the scrape endpoint.
	Metrics     *metrics.Collector
	MetricsPath string

	// URNGenerator supplies request URNs. Nil uses the shared default.
	URNGenerator *middleware.URNGenerator

	// TrustProxyHeaders controls whether X-Forwarded-For and X-Real-IP are
	// honored for client IP extraction.
	TrustProxyHeaders bool

	// Middlewares run for every route, inside the built-in pipeline.
	Middlewares []common.Middleware

	// SubRouters registered at construction time.
	SubRouters []SubRouterConfig
}

// SubRouterConfig groups routes under a shared path prefix with shared
// overrides.
type SubRouterConfig struct {
	PathPrefix          string
	Routes              []RouteConfig
	Middlewares         []common.Middleware
	AuthLevel           *AuthLevel
	TimeoutOverride     time.Duration
	MaxBodySizeOverride int64
	RateLimitOverride   *common.RateLimitConfig
	SubRouters          []SubRouterConfig
}

// RouteConfig defines a single route.
type RouteConfig struct {
	Methods     []string
	Path        string
	Handler     http.HandlerFunc
	AuthLevel   *AuthLevel
	Timeout     time.Duration
	MaxBodySize int64
	RateLimit   *common.RateLimitConfig
	Middlewares []common.Middleware
}
