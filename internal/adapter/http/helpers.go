package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/logger"
)

// readJSON decodes a JSON body of at most bodyLimit bytes. On failure it has
// already written the 400 or 413 response.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	err := json.NewDecoder(r.Body).Decode(&v)
	if err == nil {
		return v, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		writeError(w, http.StatusBadRequest, "invalid request body")
	}
	return v, false
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// requireField writes a 400 and returns false when value is blank.
func requireField(w http.ResponseWriter, value, fieldName string) bool {
	if strings.TrimSpace(value) != "" {
		return true
	}
	writeError(w, http.StatusBadRequest, fieldName+" is required")
	return false
}

// queryInt parses a positive integer query parameter capped at maxVal.
// Missing or invalid values yield def.
func queryInt(r *http.Request, name string, def, maxVal int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return min(n, maxVal)
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorMapping translates a domain sentinel into a response. An empty msg
// means the caller's fallback message is used.
type errorMapping struct {
	target    error
	status    int
	msg       string
	retryable bool
	level     slog.Level
}

var errorMappings = []errorMapping{
	{target: domain.ErrNotFound, status: http.StatusNotFound, level: slog.LevelDebug},
	{target: domain.ErrConflict, status: http.StatusConflict, msg: "resource was modified by another request", level: slog.LevelInfo},
	{target: domain.ErrValidation, status: http.StatusBadRequest, level: slog.LevelDebug},
	{target: domain.ErrMalformedGeneration, status: http.StatusUnprocessableEntity, msg: "the generator returned an unreadable story map, please retry", retryable: true, level: slog.LevelWarn},
	{target: domain.ErrGeneratorUnavailable, status: http.StatusBadGateway, msg: "generator unavailable", retryable: true, level: slog.LevelWarn},
	{target: domain.ErrStoreUnavailable, status: http.StatusServiceUnavailable, msg: "store unavailable", level: slog.LevelError},
}

// writeDomainError maps err onto a status code. Unknown errors become a
// generic 500; their detail only reaches the log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	ctx := r.Context()
	resp := errorResponse{RequestID: logger.RequestID(ctx)}
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		switch {
		case m.msg != "":
			resp.Error = m.msg
		case m.target == domain.ErrValidation:
			resp.Error = strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		default:
			resp.Error = fallbackMsg
		}
		resp.Retryable = m.retryable
		slog.Log(ctx, m.level, "request failed", "status", m.status, "error", err)
		writeJSON(w, m.status, resp)
		return
	}
	slog.ErrorContext(ctx, "request failed", "error", err)
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}
