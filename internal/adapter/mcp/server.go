// Package mcp exposes StoryForge to MCP clients over streamable HTTP: tools
// to generate, refine, read and export story maps and a resource listing the
// most recent ones.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
	"github.com/Strob0t/StoryForge/internal/domain/touchpoint"
	"github.com/Strob0t/StoryForge/internal/service"
)

// StoryMaps is the subset of the story map service the MCP server needs.
type StoryMaps interface {
	Generate(ctx context.Context, description string) (*service.GenerateResult, error)
	ApplyFeedback(ctx context.Context, id, feedback string) (*service.FeedbackResult, error)
	Get(ctx context.Context, id string) (*storymap.Document, error)
	List(ctx context.Context, limit int) ([]storymap.Document, error)
	ExportMarkdown(ctx context.Context, id string) (string, error)
	InferTouchpoint(title, description string) (touchpoint.Label, error)
}

var _ StoryMaps = (*service.StoryMapService)(nil)

// ServerConfig names the server in the MCP handshake.
type ServerConfig struct {
	Name    string
	Version string
	APIKey  string
}

// Server wraps an MCP server bound to the story map service.
type Server struct {
	cfg       ServerConfig
	maps      StoryMaps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, maps StoryMaps) *Server {
	s := &Server{
		cfg:  cfg,
		maps: maps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP handler, guarded by the API key when
// one is configured.
func (s *Server) Handler() http.Handler {
	return AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer))
}
