package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key", 5, time.Minute) {
		t.Error("6th request should be denied")
	}
	// Different key has its own window.
	if !rl.Allow("other", 5, time.Minute) {
		t.Error("different key should be allowed")
	}
}

func TestAllowWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("key", 1, time.Millisecond) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key", 1, time.Millisecond) {
		t.Fatal("second request should be denied")
	}

	time.Sleep(5 * time.Millisecond)
	if !rl.Allow("key", 1, time.Millisecond) {
		t.Error("request after window expiry should be allowed")
	}
}

func TestCleanup(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("stale", 1, time.Millisecond)
	rl.Allow("fresh", 1, time.Hour)

	time.Sleep(5 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["stale"]; ok {
		t.Error("stale entry should be removed")
	}
	if _, ok := rl.entries["fresh"]; !ok {
		t.Error("fresh entry should remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:9999"
	if got := RealIP(req); got != "192.168.1.5" {
		t.Errorf("RealIP = %q, want %q", got, "192.168.1.5")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.9" {
		t.Errorf("RealIP with XFF = %q, want %q", got, "203.0.113.9")
	}
}
