package mcp

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// apiKeyHeader is accepted as an alternative to Authorization for clients
// that cannot set bearer tokens.
const apiKeyHeader = "X-API-Key"

// presentedKey returns the key from "Authorization: Bearer <key>", a bare
// Authorization value, or the X-API-Key header, in that order.
func presentedKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, found := strings.CutPrefix(auth, "Bearer ")
		if found {
			return strings.TrimSpace(token)
		}
		return auth
	}
	return r.Header.Get(apiKeyHeader)
}

// AuthMiddleware guards the MCP endpoint with a shared key. An empty apiKey
// disables the check.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := presentedKey(r)
		switch {
		case key == "":
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
		case subtle.ConstantTimeCompare([]byte(key), want) != 1:
			slog.WarnContext(r.Context(), "mcp auth rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid credentials", http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
