// Package router provides an HTTP routing layer over httprouter with a
// built-in middleware pipeline: request context, metrics, logging, panic
// recovery, security headers, CORS, rate limiting, authentication, and
// per-route timeouts and body size limits.
package router

import (
	"context"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/middleware"
)

// paramsKey stores httprouter path parameters in the request context.
type paramsKey struct{}

// Params returns the path parameters captured for a request, or nil when
// the route has none.
func Params(r *http.Request) httprouter.Params {
	ps, _ := r.Context().Value(paramsKey{}).(httprouter.Params)
	return ps
}

// Param returns a single named path parameter.
func Param(r *http.Request, name string) string {
	return Params(r).ByName(name)
}

// Router dispatches requests through the middleware pipeline to registered
// handlers. It implements http.Handler and supports graceful shutdown.
type Router struct {
	config  RouterConfig
	mux     *httprouter.Router
	logger  *zap.Logger
	store   *middleware.SlidingWindowStore
	handler http.Handler

	wg         sync.WaitGroup
	shutdown   bool
	shutdownMu sync.RWMutex
}

// New creates a Router, registers the configured sub-routers, and builds
// the global middleware pipeline.
func New(config RouterConfig) *Router {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ServiceName != "" {
		logger = logger.Named(config.ServiceName)
	}

	r := &Router{
		config: config,
		mux:    httprouter.New(),
		logger: logger,
		store:  middleware.NewSlidingWindowStore(),
	}

	for _, sr := range config.SubRouters {
		r.RegisterSubRouter(sr)
	}

	if config.Metrics != nil && config.MetricsPath != "" {
		scrape := config.Metrics.Handler()
		r.mux.Handler(http.MethodGet, config.MetricsPath, scrape)
	}

	r.handler = r.buildPipeline()
	return r
}

// buildPipeline assembles the global middleware chain around the mux, in
// execution order: request context, metrics, logging, recovery, security
// headers, CORS, client IP, then user-supplied middlewares.
func (r *Router) buildPipeline() http.Handler {
	chain := []common.Middleware{
		middleware.RequestContext(r.config.URNGenerator),
	}
	if r.config.Metrics != nil {
		chain = append(chain, r.config.Metrics.Instrument())
	}
	chain = append(chain,
		middleware.Logging(r.logger),
		middleware.Recovery(r.logger),
		middleware.SecurityHeaders(r.config.SecurityHeaders),
	)
	if r.config.CORS != nil {
		chain = append(chain, middleware.CORS(*r.config.CORS))
	}
	chain = append(chain, middleware.ClientIP(r.config.TrustProxyHeaders))
	chain = append(chain, r.config.Middlewares...)

	return middleware.Chain(chain...)(r.mux)
}

// RegisterSubRouter registers all routes in a sub-router, applying its path
// prefix and overrides, then recurses into nested sub-routers.
func (r *Router) RegisterSubRouter(sr SubRouterConfig) {
	for _, route := range sr.Routes {
		effective := route
		effective.Path = sr.PathPrefix + route.Path
		if effective.AuthLevel == nil {
			effective.AuthLevel = sr.AuthLevel
		}
		if effective.Timeout == 0 {
			effective.Timeout = sr.TimeoutOverride
		}
		if effective.MaxBodySize == 0 {
			effective.MaxBodySize = sr.MaxBodySizeOverride
		}
		if effective.RateLimit == nil {
			effective.RateLimit = sr.RateLimitOverride
		}
		effective.Middlewares = append(append([]common.Middleware{}, sr.Middlewares...), route.Middlewares...)
		r.RegisterRoute(effective)
	}

	for _, nested := range sr.SubRouters {
		nested.PathPrefix = sr.PathPrefix + nested.PathPrefix
		r.RegisterSubRouter(nested)
	}
}

// RegisterRoute registers a single route with the full per-route pipeline.
func (r *Router) RegisterRoute(route RouteConfig) {
	handler := r.wrapHandler(route)
	for _, method := range route.Methods {
		r.mux.Handle(method, route.Path, func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
			if len(ps) > 0 {
				req = req.WithContext(context.WithValue(req.Context(), paramsKey{}, ps))
			}
			handler.ServeHTTP(w, req)
		})
	}
}

// wrapHandler applies the per-route pipeline: rate limiting, authentication,
// route-specific middlewares, then timeout and body size around the handler.
func (r *Router) wrapHandler(route RouteConfig) http.Handler {
	timeout := route.Timeout
	if timeout == 0 {
		timeout = r.config.GlobalTimeout
	}
	maxBodySize := route.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = r.config.GlobalMaxBodySize
	}
	rateLimit := route.RateLimit
	if rateLimit == nil {
		rateLimit = r.config.GlobalRateLimit
	}

	base := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.wg.Add(1)
		defer r.wg.Done()

		r.shutdownMu.RLock()
		draining := r.shutdown
		r.shutdownMu.RUnlock()
		if draining {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		route.Handler(w, req)
	}))

	var chain []common.Middleware
	if r.config.Metrics != nil {
		chain = append(chain, r.rejectionObserver())
	}
	if rateLimit != nil {
		chain = append(chain, middleware.RateLimit(rateLimit, r.store, r.logger))
	}
	if route.AuthLevel != nil && *route.AuthLevel == AuthRequired && r.config.Auth != nil {
		chain = append(chain, middleware.Authentication(r.config.Auth, r.logger))
	}
	chain = append(chain, route.Middlewares...)
	if timeout > 0 {
		chain = append(chain, middleware.Timeout(timeout))
	}
	if maxBodySize > 0 {
		chain = append(chain, middleware.MaxBodySize(maxBodySize))
	}

	return middleware.Chain(chain...)(base)
}

// rejectionObserver counts 401 and 429 responses from the rate limit and
// authentication stages below it.
func (r *Router) rejectionObserver() common.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rw := &rejectionResponseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, req)

			switch rw.status {
			case http.StatusUnauthorized:
				r.config.Metrics.RecordAuthRejection()
			case http.StatusTooManyRequests:
				r.config.Metrics.RecordRateLimited("route")
			}
		})
	}
}

type rejectionResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *rejectionResponseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Store exposes the router's rate limit store so applications can run
// background cleanup.
func (r *Router) Store() *middleware.SlidingWindowStore {
	return r.store
}

// Shutdown stops accepting new requests and waits for in-flight requests to
// finish, or for the context to expire.
func (r *Router) Shutdown(ctx context.Context) error {
	r.shutdownMu.Lock()
	r.shutdown = true
	r.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
