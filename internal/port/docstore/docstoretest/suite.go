// Package docstoretest holds the behaviour every docstore.Store must share.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/port/docstore"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Document returns a small valid document updated at base+minutes.
func Document(id string, minutes int) *storymap.Document {
	ts := base.Add(time.Duration(minutes) * time.Minute)
	return &storymap.Document{
		ID:          id,
		Title:       "Map " + id,
		Description: "desc " + id,
		CreatedAt:   base,
		UpdatedAt:   ts,
		Epics: []storymap.Epic{{
			ID:    id + "-e1",
			Title: "Onboarding",
			Features: []storymap.Feature{{
				ID:    id + "-f1",
				Title: "Sign up",
				Tasks: []storymap.UserStory{{
					ID:                 id + "-s1",
					Title:              "Register with email",
					Type:               storymap.TypeTask,
					Priority:           storymap.PriorityHigh,
					Status:             storymap.StatusTodo,
					AcceptanceCriteria: []string{"Given a new user, when they register, then an account exists"},
					EstimatedEffort:    "2 days",
					SupportingRequirements: []storymap.SupportingRequirement{{
						Title:    "Mail service",
						Type:     storymap.RequirementServiceIntegration,
						Priority: storymap.PriorityMedium,
						TechnicalSpecs: &storymap.TechnicalSpecs{
							SDKName: "smtp",
						},
					}},
					CreatedAt: base,
					UpdatedAt: ts,
				}},
			}},
		}},
	}
}

// Run exercises newStore against the docstore contract. Each subtest gets
// a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := Document("a", 0)
		if err := s.Put(ctx, want); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := s.Get(ctx, "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if err := same(want, got); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		doc := Document("a", 0)
		if err := s.Put(ctx, doc); err != nil {
			t.Fatalf("put: %v", err)
		}
		doc = doc.Clone()
		doc.Title = "Renamed"
		doc.Epics = nil
		doc.UpdatedAt = doc.UpdatedAt.Add(time.Minute)
		if err := s.Put(ctx, doc); err != nil {
			t.Fatalf("second put: %v", err)
		}
		got, err := s.Get(ctx, "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Renamed" || len(got.Epics) != 0 {
			t.Fatalf("expected overwrite, got title %q with %d epics", got.Title, len(got.Epics))
		}
	})

	t.Run("StoredValueIsDetached", func(t *testing.T) {
		s := newStore(t)
		doc := Document("a", 0)
		if err := s.Put(ctx, doc); err != nil {
			t.Fatalf("put: %v", err)
		}
		doc.Title = "mutated after put"

		got, err := s.Get(ctx, "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		got.Epics[0].Title = "mutated after get"

		again, err := s.Get(ctx, "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if again.Title != "Map a" || again.Epics[0].Title != "Onboarding" {
			t.Fatalf("store shares memory with callers: %q / %q", again.Title, again.Epics[0].Title)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, Document("a", 0)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := s.Delete(ctx, "a"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("ListRecentOrder", func(t *testing.T) {
		s := newStore(t)
		for i, id := range []string{"old", "newest", "middle"} {
			mins := map[string]int{"old": 1, "newest": 30, "middle": 10}[id]
			if err := s.Put(ctx, Document(id, mins)); err != nil {
				t.Fatalf("put %d: %v", i, err)
			}
		}

		all, err := s.ListRecent(ctx, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if got := ids(all); fmt.Sprint(got) != "[newest middle old]" {
			t.Fatalf("unexpected order %v", got)
		}

		two, err := s.ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if got := ids(two); fmt.Sprint(got) != "[newest middle]" {
			t.Fatalf("unexpected limited list %v", got)
		}
	})

	t.Run("ListRecentEmpty", func(t *testing.T) {
		s := newStore(t)
		docs, err := s.ListRecent(ctx, 5)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(docs) != 0 {
			t.Fatalf("expected empty list, got %d", len(docs))
		}
	})
}

func ids(docs []storymap.Document) []string {
	out := make([]string, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ID)
	}
	return out
}

// same compares the persisted fields. Timestamps are compared by instant
// since backends may return another location.
func same(want, got *storymap.Document) error {
	if got.ID != want.ID || got.Title != want.Title || got.Description != want.Description {
		return fmt.Errorf("header mismatch: got %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		return fmt.Errorf("timestamps mismatch: got %v/%v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Counts() != want.Counts() {
		return fmt.Errorf("counts mismatch: got %+v want %+v", got.Counts(), want.Counts())
	}
	gs, ok := got.FindStory(want.Epics[0].Features[0].Tasks[0].ID)
	if !ok {
		return errors.New("story missing after round trip")
	}
	ws := want.Epics[0].Features[0].Tasks[0]
	if gs.Story.Title != ws.Title || gs.Story.Priority != ws.Priority || len(gs.Story.AcceptanceCriteria) != len(ws.AcceptanceCriteria) {
		return fmt.Errorf("story mismatch: got %+v", gs.Story)
	}
	reqs := gs.Story.SupportingRequirements
	if len(reqs) != 1 || reqs[0].TechnicalSpecs == nil || reqs[0].TechnicalSpecs.SDKName != "smtp" {
		return fmt.Errorf("supporting requirements mismatch: got %+v", reqs)
	}
	return nil
}
