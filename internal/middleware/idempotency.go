package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/StoryForge/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 1 << 20
	idempotencyPrefix    = "idem:"
)

// replay is a stored response.
type replay struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    []byte              `json:"body"`
}

// Idempotency replays the stored response of an earlier POST carrying the
// same Idempotency-Key, so a retried generation does not call the model
// twice. Only 2xx responses are stored, for ttl.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerIdempotencyKey)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ck := idempotencyPrefix + r.URL.Path + ":" + key

			if data, ok, err := c.Get(r.Context(), ck); err != nil {
				slog.WarnContext(r.Context(), "idempotency lookup failed", "error", err)
			} else if ok {
				var rp replay
				if err := json.Unmarshal(data, &rp); err == nil {
					for k, vals := range rp.Headers {
						if k == headerRequestID {
							continue
						}
						w.Header()[k] = vals
					}
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(rp.Status)
					_, _ = w.Write(rp.Body)
					return
				}
				slog.WarnContext(r.Context(), "idempotency entry unreadable", "key", key)
			}

			rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status > 299 || rec.overflow {
				return
			}
			data, err := json.Marshal(replay{Status: rec.status, Headers: w.Header().Clone(), Body: rec.body.Bytes()})
			if err != nil {
				return
			}
			if err := c.Set(r.Context(), ck, data, ttl); err != nil {
				slog.WarnContext(r.Context(), "idempotency store failed", "key", key, "error", err)
			}
		})
	}
}

// captureWriter tees the response body up to maxIdempotencyBody.
type captureWriter struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	overflow bool
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.overflow {
		if c.body.Len()+len(b) > maxIdempotencyBody {
			c.overflow = true
			c.body.Reset()
		} else {
			c.body.Write(b)
		}
	}
	return c.ResponseWriter.Write(b)
}
