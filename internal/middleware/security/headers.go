package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy is the header set sent with every dashboard and API response.
type Policy struct {
	// CSP directives, joined with "; ".
	CSP []string

	// HSTS is sent over TLS only. Zero disables it.
	HSTS time.Duration

	// PrivateData marks responses carrying expense records: they are not
	// stored by browsers or proxies unless the handler sets its own
	// Cache-Control.
	PrivateData bool

	// Static headers sent as is.
	Static map[string]string
}

// DashboardPolicy serves pages, the chart script, the JSON API and the CSV
// download from a single origin. Forms only post back to it.
func DashboardPolicy() Policy {
	return Policy{
		CSP: []string{
			"default-src 'self'",
			"script-src 'self'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTS:        365 * 24 * time.Hour,
		PrivateData: true,
		Static: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "same-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// Middleware matches mux.MiddlewareFunc. Headers are set before the
// handler runs so handlers may override them.
func (p Policy) Middleware(next http.Handler) http.Handler {
	csp := strings.Join(p.CSP, "; ")
	hsts := ""
	if p.HSTS > 0 {
		hsts = "max-age=" + strconv.Itoa(int(p.HSTS.Seconds())) + "; includeSubDomains"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range p.Static {
			h.Set(k, v)
		}
		if csp != "" {
			h.Set("Content-Security-Policy", csp)
		}
		if hsts != "" && r.TLS != nil {
			h.Set("Strict-Transport-Security", hsts)
		}
		if p.PrivateData {
			h.Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}
