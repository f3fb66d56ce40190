// Package auth provides token issuance and validation plus the database-
// backed user resolution consumed by the authentication middleware.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apiforge/apiforge/pkg/middleware"
)

// Claims are the JWT claims carried by apiforge-issued tokens.
type Claims struct {
	UserURN string `json:"user_urn"`
	jwt.RegisteredClaims
}

// Token validation failures. The middleware maps all of them to 401 without
// exposing which one occurred.
var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token expired")
)

// TokenService issues and validates HMAC-signed JWTs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service signing with the given secret.
// Tokens expire after ttl.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: 5 * time.Second,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a signed token for the given user.
func (s *TokenService) Issue(userID, userURN string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserURN: userURN,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode validates a token's signature and expiry and extracts its claims.
// It implements middleware.TokenDecoder.
func (s *TokenService) Decode(tokenStr string) (*middleware.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithLeeway(s.leeway), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &middleware.TokenClaims{
		UserID:  claims.Subject,
		UserURN: claims.UserURN,
	}, nil
}

var _ middleware.TokenDecoder = (*TokenService)(nil)
