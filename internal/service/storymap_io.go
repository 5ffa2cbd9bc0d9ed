package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/StoryForge/internal/adapter/otel"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/port/messagequeue"
)

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Imported int `json:"imported"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// Export serializes every stored document into a bundle.
func (s *StoryMapService) Export(ctx context.Context) ([]byte, error) {
	docs, err := s.store.ListRecent(ctx, 0)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return storymap.EncodeBundle(docs, s.now())
}

// Import stores every document in a bundle, bare array or legacy payload.
// Entries that cannot be repaired are skipped. Existing documents with the
// same id are overwritten.
func (s *StoryMapService) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	ctx, span := otel.StartImportSpan(ctx, len(data))
	defer span.End()

	decoded, err := storymap.DecodeBundle(data, s.now())
	if err != nil {
		otel.Fail(span, err)
		return nil, err
	}

	res := &ImportResult{Migrated: decoded.Migrated, Skipped: decoded.Skipped}
	for i := range decoded.Documents {
		doc := &decoded.Documents[i]
		unlock := s.locks.Lock(doc.ID)
		err := s.store.Put(ctx, doc)
		unlock()
		if err != nil {
			s.metrics.RecordStoreFailure(ctx, "import")
			otel.Fail(span, err)
			return res, fmt.Errorf("import %s: %w", doc.ID, storeErr("put", err))
		}
		res.Imported++
	}

	slog.InfoContext(ctx, "story maps imported", "imported", res.Imported, "migrated", res.Migrated, "skipped", res.Skipped)
	s.publish(ctx, messagequeue.SubjectStoryMapImported, messagequeue.ImportPayload{
		Imported: res.Imported,
		Migrated: res.Migrated,
		Skipped:  res.Skipped,
	})
	return res, nil
}

// ExportMarkdown renders the document with the given id as Markdown.
func (s *StoryMapService) ExportMarkdown(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return storymap.ExportMarkdown(doc), nil
}
