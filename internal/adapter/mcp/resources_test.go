package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
)

type listOnly struct {
	StoryMaps
	docs []storymap.Document
}

func (l listOnly) List(context.Context, int) ([]storymap.Document, error) { return l.docs, nil }

func (l listOnly) InferTouchpoint(string, string) (touchpoint.Label, error) {
	return touchpoint.Label{}, nil
}

func TestRecentResource(t *testing.T) {
	doc := storymap.New("Charging App", "", time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC))
	doc.Epics = []storymap.Epic{{ID: "e1", Title: "Discover"}}
	s := NewServer(ServerConfig{Name: "test", Version: "0"}, listOnly{docs: []storymap.Document{*doc}})

	req := mcplib.ReadResourceRequest{}
	req.Params.URI = recentURI
	contents, err := s.handleRecentResource(context.Background(), req)
	if err != nil {
		t.Fatalf("handleRecentResource: %v", err)
	}
	text, ok := contents[0].(mcplib.TextResourceContents)
	if !ok {
		t.Fatal("expected TextResourceContents")
	}
	var entries []recentEntry
	if err := json.Unmarshal([]byte(text.Text), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Charging App" || entries[0].Epics != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].Updated != "2026-02-03T04:05:06Z" {
		t.Errorf("updatedAt = %q", entries[0].Updated)
	}
}
