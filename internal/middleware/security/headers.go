package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions                 string
	XContentTypeOptions           string
	XXSSProtection                string
	XDNSPrefetchControl           string
	XDownloadOptions              string
	XPermittedCrossDomainPolicies string
	ReferrerPolicy                string
	OriginAgentCluster            string
	CrossOriginOpener             string
	CrossOriginResource           string
}

// DefaultHeadersConfig mirrors the header set helmet applies out of the box.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"base-uri 'self'; " +
			"font-src 'self' https: data:; " +
			"form-action 'self'; " +
			"frame-ancestors 'self'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"script-src 'self'; " +
			"script-src-attr 'none'; " +
			"style-src 'self' https: 'unsafe-inline'; " +
			"upgrade-insecure-requests",

		HSTSMaxAge:            15552000, // 180 days
		HSTSIncludeSubdomains: true,

		XFrameOptions:                 "SAMEORIGIN",
		XContentTypeOptions:           "nosniff",
		XXSSProtection:                "0",
		XDNSPrefetchControl:           "off",
		XDownloadOptions:              "noopen",
		XPermittedCrossDomainPolicies: "none",
		ReferrerPolicy:                "no-referrer",
		OriginAgentCluster:            "?1",
		CrossOriginOpener:             "same-origin",
		CrossOriginResource:           "same-origin",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.applyHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()

	set := func(key, value string) {
		if value != "" {
			headers.Set(key, value)
		}
	}
	set("Content-Security-Policy", h.config.CSP)
	set("X-Content-Type-Options", h.config.XContentTypeOptions)
	set("X-Frame-Options", h.config.XFrameOptions)
	set("X-XSS-Protection", h.config.XXSSProtection)
	set("X-DNS-Prefetch-Control", h.config.XDNSPrefetchControl)
	set("X-Download-Options", h.config.XDownloadOptions)
	set("X-Permitted-Cross-Domain-Policies", h.config.XPermittedCrossDomainPolicies)
	set("Referrer-Policy", h.config.ReferrerPolicy)
	set("Origin-Agent-Cluster", h.config.OriginAgentCluster)
	set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)
	headers.Del("X-Powered-By")

	// HSTS only makes sense over TLS
	if r.TLS != nil && h.config.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", hsts)
	}
}
