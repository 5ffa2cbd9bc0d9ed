package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/StoryForge/internal/adapter/otel"
	"github.com/Strob0t/StoryForge/internal/config"
	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/refine"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/logger"
	"github.com/Strob0t/StoryForge/internal/port/broadcast"
	"github.com/Strob0t/StoryForge/internal/port/cache"
	"github.com/Strob0t/StoryForge/internal/port/docstore"
	"github.com/Strob0t/StoryForge/internal/port/generator"
	"github.com/Strob0t/StoryForge/internal/port/messagequeue"
)

// StoryMapService generates, refines and stores story maps. Generation and
// feedback on one document are serialized.
type StoryMapService struct {
	store   docstore.Store
	gen     generator.Generator
	cfg     config.Generator
	cache   cache.Cache
	ttl     time.Duration
	queue   messagequeue.Publisher
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
	locks   *keyLock
	now     func() time.Time
}

// GenerateResult is the outcome of an initial generation. Saved is false
// when the document could not be persisted.
type GenerateResult struct {
	Document *storymap.Document `json:"document"`
	Saved    bool               `json:"saved"`
}

// FeedbackResult is the outcome of applying feedback.
type FeedbackResult struct {
	refine.Result
	Saved bool `json:"saved"`
}

// NewStoryMapService creates a StoryMapService. gen may be nil, in which case
// generation fails with ErrGeneratorUnavailable and feedback uses the local
// heuristics only.
func NewStoryMapService(store docstore.Store, gen generator.Generator, cfg config.Generator) *StoryMapService {
	return &StoryMapService{
		store: store,
		gen:   gen,
		cfg:   cfg,
		locks: newKeyLock(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetCache enables layout caching with the given entry TTL.
func (s *StoryMapService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.ttl = ttl
}

// SetQueue enables change events on storymaps.>.
func (s *StoryMapService) SetQueue(q messagequeue.Publisher) { s.queue = q }

// SetBroadcaster enables live updates to connected clients.
func (s *StoryMapService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetMetrics enables metric recording.
func (s *StoryMapService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// Generate drafts a new story map from a product description and stores it.
// A malformed generator result is retried at most once.
func (s *StoryMapService) Generate(ctx context.Context, description string) (*GenerateResult, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if s.gen == nil {
		return nil, fmt.Errorf("%w: no generator configured", domain.ErrGeneratorUnavailable)
	}

	ctx, span := otel.StartGenerateSpan(ctx, len(description))
	defer span.End()

	start := time.Now()
	var (
		draft storymap.Draft
		err   error
	)
	for attempt := 0; attempt <= s.cfg.MalformedRetries; attempt++ {
		draft, err = s.generateOnce(ctx, description)
		if err == nil || !errors.Is(err, domain.ErrMalformedGeneration) {
			break
		}
		slog.WarnContext(ctx, "malformed generation", "attempt", attempt+1, "error", err)
	}
	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, domain.ErrMalformedGeneration) {
			outcome = "malformed"
		}
		s.metrics.RecordGeneration(ctx, outcome, time.Since(start))
		otel.Fail(span, err)
		return nil, err
	}
	s.metrics.RecordGeneration(ctx, "ok", time.Since(start))

	doc := draft.ToDocument("", s.now())
	ctx = logger.WithDocID(ctx, doc.ID)
	saved := s.save(ctx, doc)

	c := doc.Counts()
	slog.InfoContext(ctx, "story map generated", "epics", c.Epics, "stories", c.Stories, "saved", saved)
	s.publish(ctx, messagequeue.SubjectStoryMapGenerated, storyMapPayload(doc, "", "", saved))
	s.broadcast(ctx, broadcast.EventStoryMapUpdated, doc, "", "")
	return &GenerateResult{Document: doc, Saved: saved}, nil
}

func (s *StoryMapService) generateOnce(ctx context.Context, description string) (storymap.Draft, error) {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := s.gen.Generate(gctx, description)
	if err != nil {
		return storymap.Draft{}, unavailable(err)
	}
	return storymap.Normalize(raw)
}

// ApplyFeedback refines the document with the given id, or starts a new one
// from a template when id is empty. The supporting-needs rule runs locally;
// other feedback goes to the generator and falls back to the heuristics on
// any failure.
func (s *StoryMapService) ApplyFeedback(ctx context.Context, id, feedback string) (*FeedbackResult, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, fmt.Errorf("%w: feedback is required", domain.ErrValidation)
	}

	ctx, span := otel.StartFeedbackSpan(ctx, id)
	defer span.End()

	var current *storymap.Document
	if id != "" {
		ctx = logger.WithDocID(ctx, id)
		unlock := s.locks.Lock(id)
		defer unlock()

		doc, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, storeErr("get", err)
		}
		current = doc
	}

	res := s.refine(ctx, current, feedback)
	doc := res.Document
	if current != nil {
		doc.ID = current.ID
		doc.CreatedAt = current.CreatedAt
	}
	if doc.ID == "" {
		doc.ID = storymap.NewID()
	}
	doc.UpdatedAt = s.now()
	ctx = logger.WithDocID(ctx, doc.ID)

	saved := s.save(ctx, doc)
	s.metrics.RecordFeedback(ctx, string(res.Source), string(res.Intent))
	slog.InfoContext(ctx, "feedback applied", "source", res.Source, "intent", res.Intent, "saved", saved)
	s.publish(ctx, messagequeue.SubjectStoryMapRefined, storyMapPayload(doc, res.Source, res.Intent, saved))
	s.broadcast(ctx, broadcast.EventStoryMapUpdated, doc, res.Source, res.Intent)
	return &FeedbackResult{Result: res, Saved: saved}, nil
}

func (s *StoryMapService) refine(ctx context.Context, current *storymap.Document, feedback string) refine.Result {
	now := s.now()

	if doc, ok := refine.LocalRule(current, feedback, now); ok {
		return refine.Result{Document: doc, Source: refine.SourceLocalRule, Intent: refine.IntentDelete}
	}

	source := refine.SourceHeuristic
	if current != nil && s.gen != nil {
		doc, err := s.generateWithFeedback(ctx, current, feedback)
		if err == nil {
			return refine.Result{Document: doc, Source: refine.SourceGenerator, Intent: refine.Classify(feedback)}
		}
		reason := fallbackReason(err)
		slog.WarnContext(ctx, "generator feedback failed, using heuristics", "reason", reason, "error", err)
		s.metrics.RecordFallback(ctx, reason)
		source = refine.SourceHeuristicFallback
	}

	doc, intent := refine.Heuristic(current, feedback, now)
	return refine.Result{Document: doc, Source: source, Intent: intent}
}

func (s *StoryMapService) generateWithFeedback(ctx context.Context, current *storymap.Document, feedback string) (*storymap.Document, error) {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := s.gen.GenerateWithFeedback(gctx, current, feedback)
	if err != nil {
		return nil, err
	}
	draft, err := storymap.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return draft.ToDocument(current.ID, s.now()), nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrMalformedGeneration):
		return "malformed"
	default:
		return "unavailable"
	}
}

// unavailable makes sure generator failures carry ErrGeneratorUnavailable
// unless they are already classified.
func unavailable(err error) error {
	if errors.Is(err, domain.ErrGeneratorUnavailable) || errors.Is(err, domain.ErrMalformedGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGeneratorUnavailable, err)
}

// --- CRUD ---

// Get returns the document with the given id.
func (s *StoryMapService) Get(ctx context.Context, id string) (*storymap.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	return doc, nil
}

// List returns up to limit documents, most recently updated first.
func (s *StoryMapService) List(ctx context.Context, limit int) ([]storymap.Document, error) {
	docs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return docs, nil
}

// Create stores a manually authored document. Missing ids and defaults are
// filled in before validation.
func (s *StoryMapService) Create(ctx context.Context, doc *storymap.Document) (*storymap.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", domain.ErrValidation)
	}
	out := doc.Clone()
	now := s.now()
	out.ID = ""
	out.CreatedAt = now
	out.UpdatedAt = now
	out.Repair(now)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	ctx = logger.WithDocID(ctx, out.ID)
	if err := s.store.Put(ctx, out); err != nil {
		return nil, storeErr("put", err)
	}
	s.publish(ctx, messagequeue.SubjectStoryMapSaved, storyMapPayload(out, "", "", true))
	s.broadcast(ctx, broadcast.EventStoryMapUpdated, out, "", "")
	return out, nil
}

// Update replaces the document with the given id. The stored creation time
// is kept.
func (s *StoryMapService) Update(ctx context.Context, id string, doc *storymap.Document) (*storymap.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is required", domain.ErrValidation)
	}
	if doc.ID != "" && doc.ID != id {
		return nil, fmt.Errorf("%w: id %q does not match path id %q", domain.ErrValidation, doc.ID, id)
	}
	ctx = logger.WithDocID(ctx, id)
	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	out := doc.Clone()
	now := s.now()
	out.ID = id
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = now
	out.Repair(now)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, out); err != nil {
		return nil, storeErr("put", err)
	}
	s.publish(ctx, messagequeue.SubjectStoryMapSaved, storyMapPayload(out, "", "", true))
	s.broadcast(ctx, broadcast.EventStoryMapUpdated, out, "", "")
	return out, nil
}

// Delete removes the document with the given id and its cached layouts.
func (s *StoryMapService) Delete(ctx context.Context, id string) error {
	ctx = logger.WithDocID(ctx, id)
	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return storeErr("get", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr("delete", err)
	}
	s.dropLayouts(ctx, existing)

	slog.InfoContext(ctx, "story map deleted")
	s.publish(ctx, messagequeue.SubjectStoryMapDeleted, messagequeue.StoryMapPayload{ID: id, UpdatedAt: s.now()})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventStoryMapDeleted, broadcast.StoryMapEvent{ID: id})
	}
	return nil
}

// --- helpers ---

// save persists doc. Failures are logged and reported through the return
// value; the caller still answers with the document.
func (s *StoryMapService) save(ctx context.Context, doc *storymap.Document) bool {
	if err := s.store.Put(ctx, doc); err != nil {
		slog.ErrorContext(ctx, "story map not saved", "error", err)
		s.metrics.RecordStoreFailure(ctx, "put")
		return false
	}
	return true
}

// storeErr passes ErrNotFound and ErrValidation through and classifies
// everything else as ErrStoreUnavailable.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

func storyMapPayload(doc *storymap.Document, src refine.Source, intent refine.Intent, saved bool) messagequeue.StoryMapPayload {
	c := doc.Counts()
	return messagequeue.StoryMapPayload{
		ID:        doc.ID,
		Title:     doc.Title,
		Source:    string(src),
		Intent:    string(intent),
		Saved:     saved,
		Epics:     c.Epics,
		Stories:   c.Stories,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (s *StoryMapService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil || !s.queue.IsConnected() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish event failed", "subject", subject, "error", err)
	}
}

func (s *StoryMapService) broadcast(ctx context.Context, eventType string, doc *storymap.Document, src refine.Source, intent refine.Intent) {
	if s.hub == nil {
		return
	}
	c := doc.Counts()
	s.hub.BroadcastEvent(ctx, eventType, broadcast.StoryMapEvent{
		ID:      doc.ID,
		Title:   doc.Title,
		Source:  string(src),
		Intent:  string(intent),
		Epics:   c.Epics,
		Stories: c.Stories,
	})
}
