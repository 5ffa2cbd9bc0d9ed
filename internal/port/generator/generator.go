// Package generator defines the port for the language model that drafts and
// revises story maps.
package generator

import (
	"context"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// Generator returns untrusted, loosely-typed story map data in the YAML form
// accepted by storymap.Normalize. Implementations return
// domain.ErrGeneratorUnavailable for transport failures and
// domain.ErrMalformedGeneration when no payload can be extracted.
type Generator interface {
	Generate(ctx context.Context, description string) (any, error)
	GenerateWithFeedback(ctx context.Context, current *storymap.Document, feedback string) (any, error)
}
