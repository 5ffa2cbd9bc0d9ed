// Package sqlite stores story map documents in a local SQLite file. It is
// the default backend for single-user installs and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/Strob0t/StoryForge/internal/domain"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements docstore.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// It is safe to call on an existing file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	// One writer at a time avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// SchemaVersion reports the user_version pragma of the open database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (s *Store) Get(ctx context.Context, id string) (*storymap.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM story_maps WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO story_maps (id, title, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   body = excluded.body,
		   created_at = excluded.created_at,
		   updated_at = excluded.updated_at`,
		doc.ID, doc.Title, string(body), formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put story map %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM story_maps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete story map %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete story map %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete story map %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, n int) ([]storymap.Document, error) {
	limit := -1
	if n > 0 {
		limit = n
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM story_maps ORDER BY updated_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list story maps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []storymap.Document{}
	for rows.Next() {
		var body string
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

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func decode(body string) (*storymap.Document, error) {
	var d storymap.Document
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("decode story map: %w", err)
	}
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
