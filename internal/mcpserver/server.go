// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Cardbase tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/davidvkimball/cardbase/internal/cardservice"
	"github.com/davidvkimball/cardbase/internal/index"
	"github.com/davidvkimball/cardbase/internal/storage"
)

// Server wraps the MCP server with Cardbase tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *cardservice.Service
	store storage.Vault
}

// New creates a new MCP server with all Cardbase tools registered.
func New(svc *cardservice.Service, store storage.Vault) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Cardbase",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List one page of cards (title, tags, draft flag, cover image) with optional tag filter."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listCards)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Return the sanitized plain-text preview snippet of a note, as rendered on its card."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCards)

	s.mcp.AddTool(mcp.NewTool("plan_deletion",
		mcp.WithDescription("Compute the deletion impact for a batch of notes: files, index-note parent "+
			"folders, and attachments referenced only by the notes being deleted. Nothing is deleted."),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Newline-separated note paths")),
	), s.planDeletion)

	s.mcp.AddTool(mcp.NewTool("set_draft",
		mcp.WithDescription("Set or clear the draft flag on a batch of notes. "+
			"Follow the frontmatter contract (see the cardbase://frontmatter-format resource)."),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Newline-separated note paths")),
		mcp.WithBoolean("draft", mcp.Required(), mcp.Description("true marks as draft, false publishes")),
	), s.setDraft)

	s.mcp.AddTool(mcp.NewTool("upload_attachment",
		mcp.WithDescription("Download an image from a URL (or decode a data: URI) and store it in the "+
			"vault's attachments directory. Returns a markdownImage field ready to paste into a note."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or data: URI of the file")),
		mcp.WithString("filename", mcp.Description("Optional target filename (extension must match the content)")),
	), s.uploadAttachment)

	// Resource: frontmatter contract for card-bearing notes.
	s.mcp.AddResource(
		mcp.NewResource("cardbase://frontmatter-format", "Card Frontmatter Contract",
			mcp.WithResourceDescription("Canonical frontmatter format that drives card rendering."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFrontmatterFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := index.ListQuery{
		Limit:  req.GetInt("limit", 0),
		Offset: req.GetInt("offset", 0),
		Tag:    req.GetString("tag", ""),
	}
	cards, total, err := s.svc.ListCards(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"cards": cards, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) previewNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.Preview(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) planDeletion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := splitLines(raw)
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is empty"), nil
	}
	plan, err := s.svc.PlanDeletion(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(plan, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	draft, err := req.RequireBool("draft")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := splitLines(raw)
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths is empty"), nil
	}
	outcome := s.svc.BulkSetDraft(ctx, paths, draft)
	return mcp.NewToolResultText(fmt.Sprintf("updated %d of %d, %d errors",
		outcome.Updated, outcome.Updated+outcome.Failed, outcome.Failed)), nil
}

func (s *Server) readFrontmatterFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "cardbase://frontmatter-format",
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
