package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("clients are limited independently")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("a new window should reset the count")
	}

	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 0 {
		t.Fatalf("stale clients should be removed, %d left", n)
	}
}

func TestMiddlewareSkipsReads(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "c" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := []int{}
	for _, method := range []string{http.MethodDelete, http.MethodGet, http.MethodPost} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/", nil))
		codes = append(codes, rr.Code)
	}
	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
