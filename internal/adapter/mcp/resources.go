package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	recentURI   = "storyforge://storymaps/recent"
	recentLimit = 20
)

// recentEntry summarizes one story map in the recent resource.
type recentEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Epics   int    `json:"epics"`
	Stories int    `json:"stories"`
	Updated string `json:"updatedAt"`
}

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			recentURI,
			"Recent Story Maps",
			mcplib.WithResourceDescription("The most recently updated story maps"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRecentResource,
	)
}

func (s *Server) handleRecentResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	docs, err := s.maps.List(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	out := make([]recentEntry, 0, len(docs))
	for i := range docs {
		c := docs[i].Counts()
		out = append(out, recentEntry{
			ID:      docs[i].ID,
			Title:   docs[i].Title,
			Epics:   c.Epics,
			Stories: c.Stories,
			Updated: docs[i].UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
