package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/StoryForge/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a typed event and broadcasts it. StoryMapEvent
// payloads are routed to subscribers of that story map only.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	var docID string
	switch p := payload.(type) {
	case broadcast.StoryMapEvent:
		docID = p.ID
	case *broadcast.StoryMapEvent:
		docID = p.ID
	}

	h.Broadcast(ctx, docID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
