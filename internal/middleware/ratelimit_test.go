package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rate float64, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(rate, burst)
	rl.now = clock.now
	return rl, clock
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/storymaps/generate", http.NoBody)
	req.RemoteAddr = ip + ":5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(1, 10)
	h := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(h, "192.168.1.1"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl, _ := newTestLimiter(0.5, 5)
	h := rl.Handler(okHandler())

	for range 5 {
		hit(h, "192.168.1.1")
	}

	rec := hit(h, "192.168.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("expected Retry-After 2, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected remaining 0, got %q", got)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl, clock := newTestLimiter(2, 1)
	h := rl.Handler(okHandler())

	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}

	clock.advance(500 * time.Millisecond)
	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	rec := hit(rl.Handler(okHandler()), "192.168.1.1")

	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("expected remaining 9, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("expected limit 10, got %q", got)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl, _ := newTestLimiter(1, 2)
	h := rl.Handler(okHandler())

	for range 2 {
		hit(h, "10.0.0.1")
	}

	if rec := hit(h, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("IP 10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("IP 10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterCapacity(t *testing.T) {
	rl, _ := newTestLimiter(1, 2)
	rl.maxBuckets = 1
	h := rl.Handler(okHandler())

	hit(h, "10.0.0.1")
	if rec := hit(h, "10.0.0.2"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 at capacity, got %d", rec.Code)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, clock := newTestLimiter(1, 2)
	h := rl.Handler(okHandler())

	hit(h, "10.0.0.1")
	clock.advance(time.Minute)
	hit(h, "10.0.0.2")

	rl.sweep(30 * time.Second)
	if rl.Len() != 1 {
		t.Fatalf("expected 1 bucket after sweep, got %d", rl.Len())
	}
}

func TestRateLimiterRunCleanupStops(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.RunCleanup(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}
