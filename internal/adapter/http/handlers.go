package http

import (
	"context"
	"io"
	"net/http"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
	"github.com/Strob0t/StoryForge/internal/service"
)

const (
	maxRequestBodySize = 1 << 20  // 1 MB
	maxImportBodySize  = 16 << 20 // 16 MB
	defaultListLimit   = 50
	maxListLimit       = 500
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) (bool, error)
}

// Handlers holds the HTTP handlers for the StoryForge API.
type Handlers struct {
	StoryMaps *service.StoryMapService
	Generator HealthChecker                   // nil when no generator is configured
	Queue     interface{ IsConnected() bool } // nil when NATS is disabled
	Version   string
}

type generateRequest struct {
	Description string `json:"description"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

type touchpointRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type touchpointResponse struct {
	touchpoint.Label
	Text string `json:"text"`
}

// GenerateStoryMap handles POST /api/v1/storymaps/generate
func (h *Handlers) GenerateStoryMap(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[generateRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.Description, "description") {
		return
	}
	res, err := h.StoryMaps.Generate(r.Context(), req.Description)
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListStoryMaps handles GET /api/v1/storymaps
func (h *Handlers) ListStoryMaps(w http.ResponseWriter, r *http.Request) {
	docs, err := h.StoryMaps.List(r.Context(), queryInt(r, "limit", defaultListLimit, maxListLimit))
	if err != nil {
		writeDomainError(w, r, err, "story maps not found")
		return
	}
	if docs == nil {
		docs = []storymap.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// CreateStoryMap handles POST /api/v1/storymaps
func (h *Handlers) CreateStoryMap(w http.ResponseWriter, r *http.Request) {
	doc, ok := readJSON[storymap.Document](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	created, err := h.StoryMaps.Create(r.Context(), &doc)
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetStoryMap handles GET /api/v1/storymaps/{id}
func (h *Handlers) GetStoryMap(w http.ResponseWriter, r *http.Request) {
	doc, err := h.StoryMaps.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateStoryMap handles PUT /api/v1/storymaps/{id}
func (h *Handlers) UpdateStoryMap(w http.ResponseWriter, r *http.Request) {
	doc, ok := readJSON[storymap.Document](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	updated, err := h.StoryMaps.Update(r.Context(), urlParam(r, "id"), &doc)
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteStoryMap handles DELETE /api/v1/storymaps/{id}
func (h *Handlers) DeleteStoryMap(w http.ResponseWriter, r *http.Request) {
	if err := h.StoryMaps.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyFeedback handles POST /api/v1/storymaps/{id}/feedback
func (h *Handlers) ApplyFeedback(w http.ResponseWriter, r *http.Request) {
	h.applyFeedback(w, r, urlParam(r, "id"), http.StatusOK)
}

// StartFromFeedback handles POST /api/v1/feedback
func (h *Handlers) StartFromFeedback(w http.ResponseWriter, r *http.Request) {
	h.applyFeedback(w, r, "", http.StatusCreated)
}

func (h *Handlers) applyFeedback(w http.ResponseWriter, r *http.Request, id string, status int) {
	req, ok := readJSON[feedbackRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.Feedback, "feedback") {
		return
	}
	res, err := h.StoryMaps.ApplyFeedback(r.Context(), id, req.Feedback)
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, status, res)
}

// GetLayout handles GET /api/v1/storymaps/{id}/layout
func (h *Handlers) GetLayout(w http.ResponseWriter, r *http.Request) {
	board, err := h.StoryMaps.Layout(r.Context(), urlParam(r, "id"), queryBool(r, "prioritize"))
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// ListTouchpoints handles GET /api/v1/storymaps/{id}/touchpoints
func (h *Handlers) ListTouchpoints(w http.ResponseWriter, r *http.Request) {
	tps, err := h.StoryMaps.Touchpoints(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusOK, tps)
}

// ExportMarkdown handles GET /api/v1/storymaps/{id}/export.md
func (h *Handlers) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	md, err := h.StoryMaps.ExportMarkdown(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, md)
}

// ExportAll handles GET /api/v1/export
func (h *Handlers) ExportAll(w http.ResponseWriter, r *http.Request) {
	data, err := h.StoryMaps.Export(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "story maps not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="storyforge-export.json"`)
	_, _ = w.Write(data)
}

// ImportAll handles POST /api/v1/import
func (h *Handlers) ImportAll(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	res, err := h.StoryMaps.Import(r.Context(), data)
	if err != nil {
		writeDomainError(w, r, err, "story map not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// InferTouchpoint handles POST /api/v1/touchpoints
func (h *Handlers) InferTouchpoint(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[touchpointRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	l, err := h.StoryMaps.InferTouchpoint(req.Title, req.Description)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, touchpointResponse{Label: l, Text: l.String()})
}

// Health handles GET /health and GET /api/v1/health. Optional dependencies
// report "disabled" when not configured; the service itself stays up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "generator": "disabled", "queue": "disabled"}
	if h.Generator != nil {
		status["generator"] = "healthy"
		if ok, err := h.Generator.Health(r.Context()); !ok || err != nil {
			status["generator"] = "unhealthy"
		}
	}
	if h.Queue != nil {
		status["queue"] = "connected"
		if !h.Queue.IsConnected() {
			status["queue"] = "disconnected"
		}
	}
	writeJSON(w, http.StatusOK, status)
}
