package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.generateTool(),
		s.feedbackTool(),
		s.getTool(),
		s.exportTool(),
		s.touchpointTool(),
	)
}

func (s *Server) generateTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("generate_story_map",
		mcplib.WithDescription("Generate and store a user story map from a product description"),
		mcplib.WithString("description",
			mcplib.Required(),
			mcplib.Description("Free-text product description"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGenerate}
}

func (s *Server) feedbackTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("apply_feedback",
		mcplib.WithDescription("Refine a story map with free-text feedback. Without story_map_id a new map is started from a template."),
		mcplib.WithString("feedback",
			mcplib.Required(),
			mcplib.Description("What to change, e.g. 'keep at most 2 supporting needs'"),
		),
		mcplib.WithString("story_map_id",
			mcplib.Description("The story map to refine"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleFeedback}
}

func (s *Server) getTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_story_map",
		mcplib.WithDescription("Get a story map by ID"),
		mcplib.WithString("story_map_id",
			mcplib.Required(),
			mcplib.Description("The story map ID"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGet}
}

func (s *Server) exportTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("export_story_map",
		mcplib.WithDescription("Export a story map as Markdown"),
		mcplib.WithString("story_map_id",
			mcplib.Required(),
			mcplib.Description("The story map ID"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleExport}
}

func (s *Server) touchpointTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("infer_touchpoint",
		mcplib.WithDescription("Infer platform, role, domain and page for a user story"),
		mcplib.WithString("title",
			mcplib.Required(),
			mcplib.Description("Story title"),
		),
		mcplib.WithString("description",
			mcplib.Description("Story description"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleTouchpoint}
}

func (s *Server) handleGenerate(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	desc, err := req.RequireString("description")
	if err != nil || desc == "" {
		return mcplib.NewToolResultError("description is required"), nil
	}
	res, err := s.maps.Generate(ctx, desc)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to generate story map", err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleFeedback(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	feedback, err := req.RequireString("feedback")
	if err != nil || feedback == "" {
		return mcplib.NewToolResultError("feedback is required"), nil
	}
	id := req.GetString("story_map_id", "")
	res, err := s.maps.ApplyFeedback(ctx, id, feedback)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to apply feedback", err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleGet(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	id, err := req.RequireString("story_map_id")
	if err != nil || id == "" {
		return mcplib.NewToolResultError("story_map_id is required"), nil
	}
	doc, err := s.maps.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get story map %s", id), err), nil
	}
	return jsonResult(doc)
}

func (s *Server) handleExport(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	id, err := req.RequireString("story_map_id")
	if err != nil || id == "" {
		return mcplib.NewToolResultError("story_map_id is required"), nil
	}
	md, err := s.maps.ExportMarkdown(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to export story map %s", id), err), nil
	}
	return mcplib.NewToolResultText(md), nil
}

func (s *Server) handleTouchpoint(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	title := req.GetString("title", "")
	l, err := s.maps.InferTouchpoint(title, req.GetString("description", ""))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to infer touchpoint", err), nil
	}
	return jsonResult(map[string]any{"touchpoint": l, "label": l.String()})
}

func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
