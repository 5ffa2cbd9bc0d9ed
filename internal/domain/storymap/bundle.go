package storymap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain"
)

// Bundle format identifiers.
const (
	BundleFormat  = "storyforge.bundle"
	BundleVersion = 1
)

// Bundle is the export/import envelope for a set of documents.
type Bundle struct {
	Format     string     `json:"format"`
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exportedAt"`
	Documents  []Document `json:"documents"`
}

// DecodeResult is the outcome of decoding an import payload.
type DecodeResult struct {
	Documents []Document
	Migrated  int
	Skipped   int
}

// legacyEntry is one story map saved by the pre-bundle storage layout, which
// kept the raw generator output next to the id.
type legacyEntry struct {
	ID        string          `json:"id"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	Content   json.RawMessage `json:"content"`
}

// EncodeBundle serializes documents into an export bundle.
func EncodeBundle(docs []Document, now time.Time) ([]byte, error) {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.MarshalIndent(Bundle{
		Format:     BundleFormat,
		Version:    BundleVersion,
		ExportedAt: now.UTC(),
		Documents:  docs,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return data, nil
}

// DecodeBundle reads a bundle, a bare JSON array of documents, or the legacy
// {"storyMaps": [...]} layout. Entries that cannot be repaired into a valid
// document are skipped and counted.
func DecodeBundle(data []byte, now time.Time) (DecodeResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return DecodeResult{}, fmt.Errorf("%w: empty import payload", domain.ErrValidation)
	}

	if trimmed[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return DecodeResult{}, fmt.Errorf("%w: invalid document array: %v", domain.ErrValidation, err)
		}
		return decodeDocuments(entries, now), nil
	}

	var probe struct {
		Format    string            `json:"format"`
		Version   int               `json:"version"`
		Documents []json.RawMessage `json:"documents"`
		StoryMaps []legacyEntry     `json:"storyMaps"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return DecodeResult{}, fmt.Errorf("%w: invalid import payload: %v", domain.ErrValidation, err)
	}

	switch {
	case probe.StoryMaps != nil:
		return migrateLegacy(probe.StoryMaps, now), nil
	case probe.Documents != nil:
		if probe.Version > BundleVersion {
			return DecodeResult{}, fmt.Errorf("%w: unsupported bundle version %d", domain.ErrValidation, probe.Version)
		}
		return decodeDocuments(probe.Documents, now), nil
	default:
		return DecodeResult{}, fmt.Errorf("%w: unrecognized import format", domain.ErrValidation)
	}
}

func decodeDocuments(entries []json.RawMessage, now time.Time) DecodeResult {
	var res DecodeResult
	for _, raw := range entries {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			res.Skipped++
			continue
		}
		doc.Repair(now)
		if err := doc.Validate(); err != nil {
			res.Skipped++
			continue
		}
		res.Documents = append(res.Documents, doc)
	}
	return res
}

func migrateLegacy(entries []legacyEntry, now time.Time) DecodeResult {
	var res DecodeResult
	for i := range entries {
		e := &entries[i]
		doc, err := e.migrate(now)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Documents = append(res.Documents, *doc)
		res.Migrated++
	}
	return res
}

func (e *legacyEntry) migrate(now time.Time) (*Document, error) {
	content := []byte(e.Content)
	var text string
	if err := json.Unmarshal(e.Content, &text); err == nil {
		content = []byte(text)
	}

	raw, err := DecodeRaw(content)
	if err != nil {
		return nil, err
	}
	draft, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	doc := draft.ToDocument(e.ID, now)
	if e.CreatedAt != nil {
		doc.CreatedAt = *e.CreatedAt
	}
	if e.UpdatedAt != nil {
		doc.UpdatedAt = *e.UpdatedAt
	}
	return doc, nil
}

// Repair fills defaults on a document received from outside the core
// (manual authoring, imports): missing IDs, unknown enum values, empty effort
// and acceptance criteria. Order fields are rewritten to match positions.
func (d *Document) Repair(now time.Time) {
	if d.ID == "" {
		d.ID = NewID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	if d.Epics == nil {
		d.Epics = []Epic{}
	}
	for i := range d.Epics {
		e := &d.Epics[i]
		if e.ID == "" {
			e.ID = NewID()
		}
		if e.Title == "" {
			e.Title = DefaultEpicTitle
		}
		if e.Features == nil {
			e.Features = []Feature{}
		}
		for j := range e.Features {
			f := &e.Features[j]
			if f.ID == "" {
				f.ID = NewID()
			}
			if f.Title == "" {
				f.Title = DefaultFeatureTitle
			}
			if f.Tasks == nil {
				f.Tasks = []UserStory{}
			}
			for k := range f.Tasks {
				f.Tasks[k].Repair(now)
			}
		}
	}
	d.Renumber()
}

// Repair fills story defaults the same way Document.Repair does.
func (s *UserStory) Repair(now time.Time) {
	if s.ID == "" {
		s.ID = NewID()
	}
	if s.Title == "" {
		s.Title = DefaultTaskTitle
	}
	switch s.Type {
	case TypeEpic, TypeFeature, TypeTask:
	default:
		s.Type = TypeTask
	}
	s.Priority = NormalizePriority(string(s.Priority))
	switch s.Status {
	case StatusTodo, StatusInProgress, StatusDone:
	default:
		s.Status = StatusTodo
	}
	if s.EstimatedEffort == "" {
		s.EstimatedEffort = DefaultEffort
	}
	if len(s.AcceptanceCriteria) == 0 {
		s.AcceptanceCriteria = []string{DefaultAcceptanceCriteria}
	}
	for i := range s.SupportingRequirements {
		r := &s.SupportingRequirements[i]
		if !r.Type.Valid() {
			r.Type = RequirementSoftwareDependency
		}
		r.Priority = NormalizePriority(string(r.Priority))
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}
