// Package memory provides an in-process document store for tests and local
// development. Documents are cloned on the way in and out.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Store implements docstore.Store in memory.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*storymap.Document
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*storymap.Document)}
}

func (s *Store) Get(_ context.Context, id string) (*storymap.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("get story map %s: %w", id, domain.ErrNotFound)
	}
	return d.Clone(), nil
}

func (s *Store) Put(_ context.Context, doc *storymap.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("put story map: %w: id is required", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("delete story map %s: %w", id, domain.ErrNotFound)
	}
	delete(s.docs, id)
	return nil
}

func (s *Store) ListRecent(_ context.Context, n int) ([]storymap.Document, error) {
	s.mu.RLock()
	out := make([]storymap.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b storymap.Document) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
