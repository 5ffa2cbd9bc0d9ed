package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Strob0t/StoryForge"

// Attribute keys shared by the story map spans.
const (
	attrStoryMapID = attribute.Key("storymap.id")
	attrDescLen    = attribute.Key("description.length")
	attrPrioritize = attribute.Key("layout.prioritize")
	attrBundleSize = attribute.Key("bundle.bytes")
)

func start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartGenerateSpan starts a span for generating a story map from a description.
func StartGenerateSpan(ctx context.Context, descriptionLen int) (context.Context, trace.Span) {
	return start(ctx, "storymap.generate", attrDescLen.Int(descriptionLen))
}

// StartFeedbackSpan starts a span for applying feedback. docID is empty
// when no document exists yet.
func StartFeedbackSpan(ctx context.Context, docID string) (context.Context, trace.Span) {
	return start(ctx, "storymap.feedback", attrStoryMapID.String(docID))
}

// StartLayoutSpan starts a span for projecting a board.
func StartLayoutSpan(ctx context.Context, docID string, prioritize bool) (context.Context, trace.Span) {
	return start(ctx, "storymap.layout", attrStoryMapID.String(docID), attrPrioritize.Bool(prioritize))
}

// StartImportSpan starts a span for importing a bundle of size bytes.
func StartImportSpan(ctx context.Context, size int) (context.Context, trace.Span) {
	return start(ctx, "storymap.import", attrBundleSize.Int(size))
}

// Fail marks span as failed with err. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
