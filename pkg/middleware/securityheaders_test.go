package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersDefaults(t *testing.T) {
	config := DefaultSecurityHeadersConfig()

	assert.True(t, config.EnableHSTS)
	assert.True(t, config.EnableCSP)
	assert.False(t, config.CSPReportOnly)
	assert.Equal(t, 31536000, config.HSTSMaxAge)
	assert.True(t, config.HSTSIncludeSubdomains)
	assert.False(t, config.HSTSPreload)
	assert.Equal(t, "DENY", config.FrameOptions)
	assert.Equal(t, "nosniff", config.ContentTypeOptions)
	assert.Equal(t, "1; mode=block", config.XSSProtection)
	assert.Equal(t, "strict-origin-when-cross-origin", config.ReferrerPolicy)
}

func TestHSTSHeader(t *testing.T) {
	config := DefaultSecurityHeadersConfig()
	header := config.HSTSHeader()
	assert.Contains(t, header, "max-age=31536000")
	assert.Contains(t, header, "includeSubDomains")
	assert.NotContains(t, header, "preload")

	config.HSTSPreload = true
	assert.Contains(t, config.HSTSHeader(), "preload")

	config.HSTSIncludeSubdomains = false
	assert.NotContains(t, config.HSTSHeader(), "includeSubDomains")
}

func TestCSPHeaderName(t *testing.T) {
	config := DefaultSecurityHeadersConfig()
	assert.Equal(t, "Content-Security-Policy", config.CSPHeaderName())

	config.CSPReportOnly = true
	assert.Equal(t, "Content-Security-Policy-Report-Only", config.CSPHeaderName())
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeaders(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	h := rr.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'")
	assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
	assert.Contains(t, h.Get("Permissions-Policy"), "microphone=()")
	assert.Contains(t, h.Get("Permissions-Policy"), "geolocation=()")
	assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestSecurityHeadersCustomConfig(t *testing.T) {
	config := DefaultSecurityHeadersConfig()
	config.EnableHSTS = false
	config.EnableCSP = false
	config.FrameOptions = "SAMEORIGIN"

	handler := SecurityHeaders(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "SAMEORIGIN", rr.Header().Get("X-Frame-Options"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, rr.Header().Get("Content-Security-Policy"))
}
