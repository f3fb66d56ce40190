// Package reqctx provides the typed per-request context used by the apiforge
// middleware pipeline. All request-scoped values (correlation URN, start time,
// authenticated identity, client IP, database transaction) live in a single
// wrapper structure stored under one context key, avoiding deep nesting of
// context values and duck-typed attribute assignment.
package reqctx

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// requestContextKey is a private type for the context key to avoid collisions.
type requestContextKey struct{}

// DatabaseTransaction defines the essential transaction control surface.
// It allows mocking transaction behavior in tests without a real database.
type DatabaseTransaction interface {
	Commit() error
	Rollback() error
	SavePoint(name string) error
	RollbackTo(name string) error
	// GetDB returns the underlying GORM handle for direct use when needed.
	GetDB() *gorm.DB
}

// RequestContext holds all values apiforge attaches to a request.
// It is created by the request context middleware, enriched by downstream
// stages, and discarded at request end. Nothing in it is ever persisted.
type RequestContext struct {
	// URN is the correlation identifier assigned to this request.
	URN string

	// StartTime is the wall-clock time the request entered the pipeline.
	StartTime time.Time

	// UserID and UserURN identify the authenticated caller. They are set
	// only after the authentication middleware fully succeeds.
	UserID  string
	UserURN string

	ClientIP string

	Transaction DatabaseTransaction

	URNSet         bool
	IdentitySet    bool
	ClientIPSet    bool
	TransactionSet bool

	Flags map[string]bool
}

// New creates an empty request context.
func New() *RequestContext {
	return &RequestContext{Flags: make(map[string]bool)}
}

// FromContext retrieves the request context from a context.Context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok
}

// FromRequest is a convenience function to get the request context from a request.
func FromRequest(r *http.Request) (*RequestContext, bool) {
	return FromContext(r.Context())
}

// WithRequestContext adds or replaces the request context in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// ensure retrieves the request context or creates one.
func ensure(ctx context.Context) (*RequestContext, context.Context) {
	rc, ok := FromContext(ctx)
	if !ok {
		rc = New()
		ctx = WithRequestContext(ctx, rc)
	}
	return rc, ctx
}

// WithURN stamps the correlation URN and start time. An already-set URN is
// never overwritten, so the outermost middleware wins.
func WithURN(ctx context.Context, urn string, start time.Time) context.Context {
	rc, ctx := ensure(ctx)
	if rc.URNSet {
		return ctx
	}
	rc.URN = urn
	rc.StartTime = start
	rc.URNSet = true
	return ctx
}

// URN retrieves the correlation URN. Returns an empty string if unset.
func URN(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok || !rc.URNSet {
		return ""
	}
	return rc.URN
}

// StartTime retrieves the request start time.
func StartTime(ctx context.Context) (time.Time, bool) {
	rc, ok := FromContext(ctx)
	if !ok || !rc.URNSet {
		return time.Time{}, false
	}
	return rc.StartTime, true
}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, userID, userURN string) context.Context {
	rc, ctx := ensure(ctx)
	rc.UserID = userID
	rc.UserURN = userURN
	rc.IdentitySet = true
	return ctx
}

// Identity retrieves the authenticated identity from the context.
func Identity(ctx context.Context) (userID, userURN string, ok bool) {
	rc, found := FromContext(ctx)
	if !found || !rc.IdentitySet {
		return "", "", false
	}
	return rc.UserID, rc.UserURN, true
}

// IdentityFromRequest is a convenience function to get the identity from a request.
func IdentityFromRequest(r *http.Request) (userID, userURN string, ok bool) {
	return Identity(r.Context())
}

// WithClientIP adds the client IP to the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	rc, ctx := ensure(ctx)
	rc.ClientIP = ip
	rc.ClientIPSet = true
	return ctx
}

// ClientIP retrieves the client IP from the context.
func ClientIP(ctx context.Context) (string, bool) {
	rc, ok := FromContext(ctx)
	if !ok || !rc.ClientIPSet {
		return "", false
	}
	return rc.ClientIP, true
}

// WithTransaction adds a database transaction to the context.
func WithTransaction(ctx context.Context, tx DatabaseTransaction) context.Context {
	rc, ctx := ensure(ctx)
	rc.Transaction = tx
	rc.TransactionSet = true
	return ctx
}

// Transaction retrieves the database transaction from the context.
func Transaction(ctx context.Context) (DatabaseTransaction, bool) {
	rc, ok := FromContext(ctx)
	if !ok || !rc.TransactionSet {
		return nil, false
	}
	return rc.Transaction, true
}

// WithFlag sets a named boolean flag on the request context.
func WithFlag(ctx context.Context, name string, value bool) context.Context {
	rc, ctx := ensure(ctx)
	if rc.Flags == nil {
		rc.Flags = make(map[string]bool)
	}
	rc.Flags[name] = value
	return ctx
}

// Flag retrieves a named flag. The second return reports whether it was set.
func Flag(ctx context.Context, name string) (bool, bool) {
	rc, ok := FromContext(ctx)
	if !ok || rc.Flags == nil {
		return false, false
	}
	value, exists := rc.Flags[name]
	return value, exists
}
