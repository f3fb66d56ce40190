package middleware

import (
	"net/http"
	"strconv"

	"github.com/apiforge/apiforge/pkg/common"
)

// SecurityHeadersConfig controls the static security headers injected into
// every response.
type SecurityHeadersConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	EnableCSP             bool
	CSP                   string
	CSPReportOnly         bool
	FrameOptions          string
	ContentTypeOptions    string
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersConfig returns the framework defaults: HSTS for a
// year including subdomains, a restrictive CSP, and clickjacking/sniffing
// protections on.
func DefaultSecurityHeadersConfig() *SecurityHeadersConfig {
	return &SecurityHeadersConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           false,
		EnableCSP:             true,
		CSPReportOnly:         false,
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		XSSProtection:         "1; mode=block",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// HSTSHeader assembles the Strict-Transport-Security header value.
func (c *SecurityHeadersConfig) HSTSHeader() string {
	header := "max-age=" + strconv.Itoa(c.HSTSMaxAge)
	if c.HSTSIncludeSubdomains {
		header += "; includeSubDomains"
	}
	if c.HSTSPreload {
		header += "; preload"
	}
	return header
}

// CSPHeaderName selects between enforcing and report-only CSP delivery.
func (c *SecurityHeadersConfig) CSPHeaderName() string {
	if c.CSPReportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// defaultCSP is applied when EnableCSP is set and no policy was supplied.
func defaultCSP() string {
	return "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'"
}

// defaultPermissionsPolicy disables the powerful browser features an API has
// no business using.
func defaultPermissionsPolicy() string {
	return "camera=(), microphone=(), geolocation=(), payment=()"
}

// SecurityHeaders creates a middleware injecting static security headers
// into every response before the handler runs.
func SecurityHeaders(config *SecurityHeadersConfig) common.Middleware {
	if config == nil {
		config = DefaultSecurityHeadersConfig()
	}

	csp := config.CSP
	if csp == "" {
		csp = defaultCSP()
	}
	permissions := config.PermissionsPolicy
	if permissions == "" {
		permissions = defaultPermissionsPolicy()
	}
	hsts := config.HSTSHeader()
	cspName := config.CSPHeaderName()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ContentTypeOptions != "" {
				h.Set("X-Content-Type-Options", config.ContentTypeOptions)
			}
			if config.XSSProtection != "" {
				h.Set("X-XSS-Protection", config.XSSProtection)
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			h.Set("Permissions-Policy", permissions)
			if config.EnableHSTS {
				h.Set("Strict-Transport-Security", hsts)
			}
			if config.EnableCSP {
				h.Set(cspName, csp)
			}

			next.ServeHTTP(w, r)
		})
	}
}
