// Package mcp exposes the memory engine as Model Context Protocol tools
// over stdio, so any MCP-capable assistant can recall, store, and forget
// facts without linking against this module.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tablemind/recall/internal/memory"
)

// Server wraps an MCP server bound to a memory engine.
type Server struct {
	store  memory.Store
	engine *memory.Engine
	logger *slog.Logger
	mcp    *server.MCPServer
}

// New creates the MCP server and registers the memory tools.
func New(store memory.Store, engine *memory.Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:  store,
		engine: engine,
		logger: logger,
	}

	s.mcp = server.NewMCPServer("recall", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcp.AddTool(recallTool(), s.handleRecall)
	s.mcp.AddTool(storeTool(), s.handleStore)
	s.mcp.AddTool(forgetTool(), s.handleForget)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio")
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}

func recallTool() mcp.Tool {
	return mcp.NewTool("memory_recall",
		mcp.WithDescription("Recall the top-scoring remembered facts about the user. Recalling a fact reinforces it for future recall."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of facts to return (1-15, default 15)."),
		),
	)
}

// recalledFact is the JSON shape of a fact returned by memory_recall.
type recalledFact struct {
	Content    string `json:"content"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
}

func (s *Server) handleRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", memory.DefaultInjectionLimit)
	if limit < 1 || limit > memory.DefaultInjectionLimit {
		limit = memory.DefaultInjectionLimit
	}

	facts, err := s.store.TopForInjection(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recall failed: %v", err)), nil
	}

	views := make([]recalledFact, 0, len(facts))
	for _, f := range facts {
		views = append(views, recalledFact{
			Content:    f.Content,
			Category:   string(f.Category),
			Importance: f.Importance,
		})
	}

	payload, err := json.Marshal(map[string]any{"facts": views})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serialize failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func storeTool() mcp.Tool {
	return mcp.NewTool("memory_store",
		mcp.WithDescription("Store an explicit fact about the user. Subject to the same privacy and duplicate checks as automatic extraction."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The fact to remember, e.g. \"User is vegetarian\"."),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("One of: "+strings.Join(categoryNames(), ", ")+"."),
		),
		mcp.WithNumber("importance",
			mcp.Description("Importance from 1 to 10 (default 5)."),
		),
	)
}

func (s *Server) handleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categoryName, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := memory.ParseCategory(categoryName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	importance := req.GetInt("importance", 5)

	fact, err := s.engine.Remember(ctx, content, category, importance)
	if err != nil {
		// Privacy rejections and duplicates are expected outcomes the
		// assistant should relay, not protocol failures.
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.logger.Info("fact stored via mcp", "category", string(fact.Category))
	return mcp.NewToolResultText(fmt.Sprintf("Remembered: %s", fact.Content)), nil
}

func forgetTool() mcp.Tool {
	return mcp.NewTool("memory_forget",
		mcp.WithDescription("Forget every remembered fact whose content contains the given fragment (case-insensitive)."),
		mcp.WithString("fragment",
			mcp.Required(),
			mcp.Description("Text identifying the facts to forget, e.g. \"sushi\"."),
		),
	)
}

func (s *Server) handleForget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fragment, err := req.RequireString("fragment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	removed, err := s.engine.Forget(ctx, fragment)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forget failed: %v", err)), nil
	}
	if len(removed) == 0 {
		return mcp.NewToolResultText("Nothing matched."), nil
	}

	contents := make([]string, 0, len(removed))
	for _, f := range removed {
		contents = append(contents, f.Content)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Forgot %d fact(s): %s",
		len(removed), strings.Join(contents, "; "))), nil
}

func categoryNames() []string {
	categories := memory.Categories()
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}
	return names
}
