// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the recent-items list for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/recents/internal/query"
	"github.com/starford/recents/internal/recentservice"
)

const defaultListLimit = 50

// Server wraps the MCP server with the recents tools.
type Server struct {
	mcp *server.MCPServer
	svc *recentservice.Service
}

// New creates a new MCP server with all tools registered. svc should not be
// shared with another caller since searching restarts its query.
func New(svc *recentservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Recents",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recent_items",
		mcp.WithDescription("List the most recently used files and folders, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of items (default 50)")),
	), s.listRecentItems)

	s.mcp.AddTool(mcp.NewTool("search_recent_items",
		mcp.WithDescription("Search recent items by name or path. A query containing * or ? is "+
			"matched as a wildcard pattern, anything else as a case-insensitive substring. "+
			"Pass the returned token back to fetch the next page."),
		mcp.WithString("query", mcp.Description("Search text; empty lists everything")),
		mcp.WithString("token", mcp.Description("Token of a previous search to continue paging")),
	), s.searchRecentItems)

	s.mcp.AddTool(mcp.NewTool("recents_status",
		mcp.WithDescription("Report whether the recent-items list is loaded, its size and fingerprint."),
	), s.recentsStatus)

	s.mcp.AddTool(mcp.NewTool("get_manifest_format",
		mcp.WithDescription("Returns the manifest pointer file format understood by the manifest resolver."),
	), s.getManifestFormat)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("recents://manifest-format", "Manifest Pointer Format",
			mcp.WithResourceDescription("YAML format of manifest pointer files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

type searchResult struct {
	Token   query.Token  `json:"token"`
	Items   []query.Item `json:"items"`
	HasMore bool         `json:"has_more"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRecentItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	snap, _ := s.svc.Recents()
	if len(snap) > limit {
		snap = snap[:limit]
	}
	return jsonResult(snap)
}

func (s *Server) searchRecentItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tok query.Token
	if raw := req.GetString("token", ""); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError("invalid token"), nil
		}
		tok = parsed
	} else {
		tok = s.svc.Search(req.GetString("query", ""))
	}

	page, err := s.svc.Next(ctx, tok)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(searchResult{Token: tok, Items: page.Items, HasMore: page.HasMore})
}

func (s *Server) recentsStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Status())
}

func (s *Server) getManifestFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ManifestFormatContract), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "recents://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}
