// Package broadcast defines the port for pushing story map changes to
// connected clients.
package broadcast

import "context"

// Event types.
const (
	EventStoryMapUpdated = "storymap.updated"
	EventStoryMapDeleted = "storymap.deleted"
)

// StoryMapEvent is the payload of storymap.* events.
type StoryMapEvent struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Source  string `json:"source,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Epics   int    `json:"epics"`
	Stories int    `json:"stories"`
}

// Broadcaster sends typed events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
