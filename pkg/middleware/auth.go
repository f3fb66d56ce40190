package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/apiforge/apiforge/pkg/common"
	"github.com/apiforge/apiforge/pkg/reqctx"
	"go.uber.org/zap"
)

// TokenClaims is the identity a decoder extracts from a valid credential.
type TokenClaims struct {
	UserID  string
	UserURN string
}

// TokenDecoder validates a bearer token (signature, expiry) and extracts its
// claims. Implementations live outside this package; pkg/auth provides a JWT
// decoder.
type TokenDecoder interface {
	Decode(token string) (*TokenClaims, error)
}

// AuthenticatedUser is the resolved caller attached to the request context.
type AuthenticatedUser struct {
	ID  string
	URN string
}

// UserResolver looks up a user by identifier, scoped to users that are
// active and currently logged in. A nil user with a nil error is treated as
// no match.
type UserResolver interface {
	ResolveActiveUser(ctx context.Context, userID string) (*AuthenticatedUser, error)
}

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	// UnprotectedRoutes lists exact request paths that bypass authentication.
	UnprotectedRoutes []string

	Decoder  TokenDecoder
	Resolver UserResolver
}

// Authentication gates access to protected routes. Per request it runs the
// following stages, each able to short-circuit with a 401:
//
//  1. unguarded routes and CORS preflight requests pass straight through
//  2. the Authorization header must carry a strict "Bearer <token>" credential
//  3. the token must decode and validate
//  4. the decoded identifier must resolve to a currently-logged-in user
//
// Identity is attached to the request context only when every stage
// succeeds; rejections never leak decode internals to the client.
func Authentication(config *AuthConfig, logger *zap.Logger) common.Middleware {
	if config == nil || config.Decoder == nil || config.Resolver == nil {
		panic("Authentication middleware requires a config with a decoder and a resolver")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	unprotected := make(map[string]bool, len(config.UnprotectedRoutes))
	for _, route := range config.UnprotectedRoutes {
		unprotected[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unprotected[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("Authentication failed: missing or malformed Authorization header",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := decodeToken(config.Decoder, token)
			if err != nil {
				logger.Warn("Authentication failed: token rejected",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := config.Resolver.ResolveActiveUser(r.Context(), claims.UserID)
			if err != nil || user == nil {
				logger.Warn("Authentication failed: no active logged-in user for token",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := reqctx.WithIdentity(r.Context(), user.ID, user.URN)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from a strict "Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// decodeToken invokes the decoder, converting a panic into an error so a
// misbehaving decoder can never take down the pipeline.
func decodeToken(decoder TokenDecoder, token string) (claims *TokenClaims, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			claims = nil
			err = fmt.Errorf("token decode panicked: %v", rec)
		}
	}()

	claims, err = decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims == nil || claims.UserID == "" {
		return nil, errors.New("token carries no subject")
	}
	return claims, nil
}
