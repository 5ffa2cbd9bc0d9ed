// Package docstore defines the port for persisting story map documents.
package docstore

import (
	"context"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Store persists whole documents. Put overwrites the stored value; the last
// writer wins. Get returns domain.ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*storymap.Document, error)
	Put(ctx context.Context, doc *storymap.Document) error
	Delete(ctx context.Context, id string) error
	// ListRecent returns up to n documents ordered by updatedAt descending.
	// n <= 0 returns all documents.
	ListRecent(ctx context.Context, n int) ([]storymap.Document, error)
	Close() error
}
