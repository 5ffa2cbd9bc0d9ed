package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Strob0t/StoryForge/internal/adapter/otel"
	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/layout"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
)

// StoryTouchpoint pairs a story with its inferred touchpoint.
type StoryTouchpoint struct {
	StoryID    string           `json:"storyId"`
	Title      string           `json:"title"`
	Touchpoint touchpoint.Label `json:"touchpoint"`
	Label      string           `json:"label"`
}

// Layout projects the document with the given id into a board. Boards are
// cached under a key that includes the document's updatedAt, so a write
// never serves a stale board.
func (s *StoryMapService) Layout(ctx context.Context, id string, prioritize bool) (*layout.Board, error) {
	ctx, span := otel.StartLayoutSpan(ctx, id, prioritize)
	defer span.End()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := layoutKey(doc.ID, doc.UpdatedAt, prioritize)
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "layout cache get failed", "error", err)
		}
		if ok {
			var b layout.Board
			if err := json.Unmarshal(data, &b); err == nil {
				return &b, nil
			}
		}
	}

	board := layout.Project(doc, layout.Options{Prioritize: prioritize})
	if s.cache != nil {
		if data, err := json.Marshal(board); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.WarnContext(ctx, "layout cache set failed", "error", err)
			}
		}
	}
	return board, nil
}

func layoutKey(id string, updatedAt time.Time, prioritize bool) string {
	return "layout:" + id + ":" + updatedAt.UTC().Format(time.RFC3339Nano) + ":" + strconv.FormatBool(prioritize)
}

func (s *StoryMapService) dropLayouts(ctx context.Context, doc *storymap.Document) {
	if s.cache == nil {
		return
	}
	for _, p := range []bool{false, true} {
		if err := s.cache.Delete(ctx, layoutKey(doc.ID, doc.UpdatedAt, p)); err != nil {
			slog.WarnContext(ctx, "layout cache delete failed", "error", err)
		}
	}
}

// InferTouchpoint infers the touchpoint of a free-standing story.
func (s *StoryMapService) InferTouchpoint(title, description string) (touchpoint.Label, error) {
	if title == "" && description == "" {
		return touchpoint.Label{}, fmt.Errorf("%w: title or description is required", domain.ErrValidation)
	}
	return touchpoint.InferText(title, description), nil
}

// Touchpoints infers the touchpoint of every story in a document, in
// document order.
func (s *StoryMapService) Touchpoints(ctx context.Context, id string) ([]StoryTouchpoint, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []StoryTouchpoint{}
	for i := range doc.Epics {
		for j := range doc.Epics[i].Features {
			for k := range doc.Epics[i].Features[j].Tasks {
				st := &doc.Epics[i].Features[j].Tasks[k]
				l := touchpoint.Infer(st)
				out = append(out, StoryTouchpoint{StoryID: st.ID, Title: st.Title, Touchpoint: l, Label: l.String()})
			}
		}
	}
	return out, nil
}
