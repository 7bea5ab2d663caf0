package mcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/shelf-mcp/internal/library"
	"github.com/dshills/shelf-mcp/internal/validation"
)

const (
	// ServerName is the MCP server name
	ServerName = "shelf-mcp"
	// ServerVersion is the current server version
	ServerVersion = "0.5.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	library  *library.Library
	validate *validation.Validator
	logger   *slog.Logger
}

// NewServer creates a new MCP server instance exposing lib as tools
func NewServer(lib *library.Library, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		library:  lib,
		validate: validation.New("json"),
		logger:   logger.With(slog.String("component", "mcp")),
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.logCalls),
	)

	s.registerTools()
	return s
}

// Serve runs the MCP protocol over the given streams until ctx is
// cancelled or in reaches EOF
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	tools := []server.ServerTool{
		// Catalog
		{Tool: addBookTool(), Handler: s.handleAddBook},
		{Tool: listBooksTool(), Handler: s.handleListBooks},
		{Tool: updateProgressTool(), Handler: s.handleUpdateProgress},
		{Tool: updateLocationsTool(), Handler: s.handleUpdateLocations},
		{Tool: getContentTool(), Handler: s.handleGetContent},
		{Tool: deleteBookTool(), Handler: s.handleDeleteBook},
		{Tool: wipeAllTool(), Handler: s.handleWipeAll},
		{Tool: libraryStatsTool(), Handler: s.handleLibraryStats},

		// Annotations
		{Tool: addHighlightTool(), Handler: s.handleAddHighlight},
		{Tool: listHighlightsTool(), Handler: s.handleListHighlights},
		{Tool: listAllHighlightsTool(), Handler: s.handleListAllHighlights},
		{Tool: updateHighlightNotesTool(), Handler: s.handleUpdateHighlightNotes},
		{Tool: deleteHighlightTool(), Handler: s.handleDeleteHighlight},
		{Tool: addBookmarkTool(), Handler: s.handleAddBookmark},
		{Tool: listBookmarksTool(), Handler: s.handleListBookmarks},
		{Tool: deleteBookmarkTool(), Handler: s.handleDeleteBookmark},

		// Collections
		{Tool: createCollectionTool(), Handler: s.handleCreateCollection},
		{Tool: listCollectionsTool(), Handler: s.handleListCollections},
		{Tool: deleteCollectionTool(), Handler: s.handleDeleteCollection},
		{Tool: linkHighlightTool(), Handler: s.handleLinkHighlight},
		{Tool: unlinkHighlightTool(), Handler: s.handleUnlinkHighlight},
		{Tool: highlightsInCollectionTool(), Handler: s.handleHighlightsInCollection},
		{Tool: collectionsOfHighlightTool(), Handler: s.handleCollectionsOfHighlight},
	}
	s.mcp.AddTools(tools...)
}

// logCalls records every tool invocation with its duration and outcome
func (s *Server) logCalls(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, request)
		attrs := []any{"tool", request.Params.Name, "duration", time.Since(start)}
		if err != nil {
			s.logger.Warn("tool failed", append(attrs, "error", err)...)
		} else {
			s.logger.Debug("tool called", attrs...)
		}
		return result, err
	}
}
