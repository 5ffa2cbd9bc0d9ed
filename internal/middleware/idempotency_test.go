package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/StoryForge/internal/middleware"
)

// memCache is an in-memory cache.Cache for testing.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, false, errors.New("cache down")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("cache down")
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func countingHandler(counter *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*counter++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, *counter)
	})
}

func post(h http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_NoHeader(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := middleware.Idempotency(c, time.Hour)(countingHandler(&counter, http.StatusCreated))

	post(h, "/generate", "")
	post(h, "/generate", "")

	if counter != 2 {
		t.Fatalf("expected 2 calls, got %d", counter)
	}
	if c.len() != 0 {
		t.Fatalf("expected nothing stored, got %d entries", c.len())
	}
}

func TestIdempotency_SecondRequestReplays(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusCreated))

	first := post(h, "/generate", "key-1")
	second := post(h, "/generate", "key-1")

	if counter != 1 {
		t.Fatalf("expected handler called once, got %d", counter)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("expected replayed body %q, got %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected Idempotent-Replayed header")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected stored content type, got %q", second.Header().Get("Content-Type"))
	}
}

func TestIdempotency_KeyScopedByPath(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusOK))

	post(h, "/generate", "same")
	post(h, "/feedback", "same")

	if counter != 2 {
		t.Fatalf("expected 2 calls, got %d", counter)
	}
}

func TestIdempotency_FailuresNotStored(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := middleware.Idempotency(c, time.Hour)(countingHandler(&counter, http.StatusBadGateway))

	post(h, "/generate", "key-err")
	post(h, "/generate", "key-err")

	if counter != 2 {
		t.Fatalf("expected failed responses to be retried, got %d calls", counter)
	}
	if c.len() != 0 {
		t.Fatalf("expected nothing stored, got %d entries", c.len())
	}
}

func TestIdempotency_NonPostIgnored(t *testing.T) {
	counter := 0
	h := middleware.Idempotency(newMemCache(), time.Hour)(countingHandler(&counter, http.StatusOK))

	for _, method := range []string{http.MethodGet, http.MethodPut} {
		req := httptest.NewRequest(method, "/storymaps/1", http.NoBody)
		req.Header.Set("Idempotency-Key", "key-x")
		h.ServeHTTP(httptest.NewRecorder(), req)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if counter != 4 {
		t.Fatalf("expected 4 calls, got %d", counter)
	}
}

func TestIdempotency_CacheErrorPassesThrough(t *testing.T) {
	counter := 0
	c := newMemCache()
	c.fail = true
	h := middleware.Idempotency(c, time.Hour)(countingHandler(&counter, http.StatusCreated))

	rec := post(h, "/generate", "key-1")
	if rec.Code != http.StatusCreated || counter != 1 {
		t.Fatalf("expected request served despite cache error, got %d after %d calls", rec.Code, counter)
	}
}
