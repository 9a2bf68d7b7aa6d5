package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct peer", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"untrusted peer cannot spoof", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"}, "198.51.100.9"},
		{"real ip header", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.10"}, "198.51.100.10"},
		{"garbage header ignored", "127.0.0.1:80", map[string]string{"X-Forwarded-For": "not-an-ip"}, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDashboardPolicy(t *testing.T) {
	h := DashboardPolicy().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/export.csv" {
			w.Header().Set("Cache-Control", "private, max-age=60")
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff missing")
	}
	if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "form-action 'self'") {
		t.Errorf("CSP = %q", rr.Header().Get("Content-Security-Policy"))
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expense pages should not be cached, got %q", rr.Header().Get("Cache-Control"))
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	if rr.Header().Get("Cache-Control") != "private, max-age=60" {
		t.Errorf("handler Cache-Control should win, got %q", rr.Header().Get("Cache-Control"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", rr.Header().Get("Strict-Transport-Security"))
	}
}
