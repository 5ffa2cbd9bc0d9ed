package otel

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMiddleware traces every request except health probes and websocket
// upgrades. Spans are named after the matched chi route.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(spanName),
			otelhttp.WithFilter(traced),
		)
	}
}

func traced(r *http.Request) bool {
	if strings.HasSuffix(r.URL.Path, "/health") {
		return false
	}
	return !strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// spanName uses the route pattern so /storymaps/{id} aggregates across ids.
// The pattern is only complete once routing finished; before that the raw
// path is used.
func spanName(_ string, r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return r.Method + " " + r.URL.Path
	}
	return r.Method + " " + rc.RoutePattern()
}
