package http

import (
	"bufio"
	"bytes"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/logger"
)

// hijackableRecorder wraps httptest.ResponseRecorder to implement http.Hijacker.
type hijackableRecorder struct {
	*httptest.ResponseRecorder
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, nil
}

func TestResponseWriterHijack(t *testing.T) {
	rw := &responseWriter{ResponseWriter: &hijackableRecorder{httptest.NewRecorder()}, status: http.StatusOK}
	if _, _, err := rw.Hijack(); err != nil {
		t.Fatalf("Hijack returned unexpected error: %v", err)
	}

	plain := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := plain.Hijack(); err == nil {
		t.Fatal("expected error when upstream does not implement Hijacker")
	}
}

func TestResponseWriterFlushAndCount(t *testing.T) {
	inner := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: inner, status: http.StatusOK}

	_, _ = rw.Write([]byte("hello"))
	rw.Flush()

	if !inner.Flushed {
		t.Fatal("expected inner ResponseRecorder to be flushed")
	}
	if rw.written != 5 {
		t.Errorf("written = %d, want 5", rw.written)
	}
	if http.NewResponseController(rw) == nil {
		t.Fatal("no response controller")
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		allowed string
		origin  string
		method  string
		want    string
		status  int
	}{
		{"listed origin", "http://a.test, http://b.test", "http://b.test", http.MethodGet, "http://b.test", http.StatusOK},
		{"unlisted origin", "http://a.test", "http://evil.test", http.MethodGet, "", http.StatusOK},
		{"wildcard", "*", "http://any.test", http.MethodGet, "*", http.StatusOK},
		{"preflight", "http://a.test", "http://a.test", http.MethodOptions, "http://a.test", http.StatusNoContent},
		{"no origin", "http://a.test", "", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/storymaps", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(ok).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow-origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "default-src 'none'") {
		t.Errorf("csp = %q", w.Header().Get("Content-Security-Policy"))
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log, _ := logger.NewTo(&buf, config.Logging{Level: "info", Service: "test"})
	prev := slog.Default()
	slog.SetDefault(log)
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))

	for _, p := range []string{"/api/v1/storymaps", "/health", "/fail"} {
		req := httptest.NewRequest(http.MethodGet, p, http.NoBody)
		req = req.WithContext(logger.WithRequestID(req.Context(), "req-1"))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	out := buf.String()
	if strings.Contains(out, `"path":"/health"`) {
		t.Error("health probe logged at info")
	}
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"bytes":2`) {
		t.Errorf("missing fields in %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("server error not logged at warn: %s", out)
	}
}
