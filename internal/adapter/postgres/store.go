package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Store implements docstore.Store on PostgreSQL. Each document is one row
// with the full tree in a jsonb column.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, id string) (*storymap.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM story_maps WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get story map %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get story map %s: %w", id, err)
	}
	return decode(body)
}

func (s *Store) Put(ctx context.Context, doc *storymap.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("put story map: %w: id is required", domain.ErrValidation)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal story map %s: %w", doc.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO story_maps (id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   body = EXCLUDED.body,
		   created_at = EXCLUDED.created_at,
		   updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.Title, body, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put story map %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM story_maps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete story map %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete story map %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, n int) ([]storymap.Document, error) {
	var limit *int
	if n > 0 {
		limit = &n
	}
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM story_maps ORDER BY updated_at DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list story maps: %w", err)
	}
	defer rows.Close()

	out := []storymap.Document{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan story map: %w", err)
		}
		d, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func decode(body []byte) (*storymap.Document, error) {
	var d storymap.Document
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode story map: %w", err)
	}
	return &d, nil
}
