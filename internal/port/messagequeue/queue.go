// Package messagequeue defines the port for story map change events and
// the payload schemas carried on each subject.
package messagequeue

import "context"

// Handler processes one delivered message. ctx carries the publisher's
// request ID when one was set. A non-nil error asks for redelivery.
type Handler func(ctx context.Context, subject string, data []byte) error

// Publisher emits events. Publishing is best effort for callers: a
// disconnected publisher is skipped rather than failing the operation.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	IsConnected() bool
}

// Subscriber delivers events to a handler until the returned cancel
// function is called.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
}

// Queue is a full connection: publishing, subscribing and shutdown.
type Queue interface {
	Publisher
	Subscriber
	// Drain flushes pending deliveries before closing.
	Drain() error
	Close() error
}

// Subjects. Everything lives under storymaps.> so one stream captures it.
const (
	SubjectStoryMapGenerated = "storymaps.generated"
	SubjectStoryMapRefined   = "storymaps.refined"
	SubjectStoryMapSaved     = "storymaps.saved"
	SubjectStoryMapDeleted   = "storymaps.deleted"
	SubjectStoryMapImported  = "storymaps.imported"

	SubjectStoryMapAll = "storymaps.>"
)
