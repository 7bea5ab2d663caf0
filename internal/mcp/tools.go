package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/shelf-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound       = -32001 // Title, id or content file does not exist
	ErrorCodeConstraint     = -32002 // Write rejected by a uniqueness constraint
	ErrorCodePartialFailure = -32003 // Database committed but a later step failed
)

// ContentURIPrefix prefixes the URI of every embedded book resource
const ContentURIPrefix = "shelf://books/"

// Tool arguments. Field names follow the json tags so validation messages
// match what the client sent.

type addBookArgs struct {
	Title    string  `json:"title" validate:"required"`
	Filename string  `json:"filename" validate:"required,excludesall=/\\"`
	Cover    *string `json:"cover"`
	Data     string  `json:"data" validate:"required,base64"`
}

type titleArgs struct {
	Title string `json:"title" validate:"required"`
}

type updateProgressArgs struct {
	Title      string   `json:"title" validate:"required"`
	CFI        string   `json:"cfi"`
	Percentage *float64 `json:"percentage" validate:"required"`
}

type updateLocationsArgs struct {
	Title         string `json:"title" validate:"required"`
	LocationsData string `json:"locations_data"`
}

type filenameArgs struct {
	Filename string `json:"filename" validate:"required,excludesall=/\\"`
}

type wipeAllArgs struct {
	Confirm bool `json:"confirm" validate:"required"`
}

type addHighlightArgs struct {
	BookTitle string `json:"book_title" validate:"required"`
	CFI       string `json:"cfi" validate:"required"`
	Text      string `json:"text"`
	Color     string `json:"color"`
	Notes     string `json:"notes"`
}

type bookTitleArgs struct {
	BookTitle string `json:"book_title" validate:"required"`
}

type idArgs struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type updateNotesArgs struct {
	ID    int64  `json:"id" validate:"required,gt=0"`
	Notes string `json:"notes"`
}

type addBookmarkArgs struct {
	BookTitle string `json:"book_title" validate:"required"`
	CFI       string `json:"cfi" validate:"required"`
	Label     string `json:"label"`
}

type createCollectionArgs struct {
	Name  string `json:"name" validate:"required"`
	Emoji string `json:"emoji"`
}

type linkArgs struct {
	HighlightID  int64 `json:"highlight_id" validate:"required,gt=0"`
	CollectionID int64 `json:"collection_id" validate:"required,gt=0"`
}

type collectionIDArgs struct {
	CollectionID int64 `json:"collection_id" validate:"required,gt=0"`
}

type highlightIDArgs struct {
	HighlightID int64 `json:"highlight_id" validate:"required,gt=0"`
}

// Catalog handlers

// handleAddBook handles the add_book tool invocation
func (s *Server) handleAddBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addBookArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(args.Data)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "data is not valid base64", map[string]interface{}{
			"param":  "data",
			"reason": err.Error(),
		})
	}

	book, err := s.library.AddBook(ctx, args.Title, args.Filename, args.Cover, data)
	if err != nil {
		return nil, toolError("add book failed", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(book)), nil
}

// handleListBooks handles the list_books tool invocation
func (s *Server) handleListBooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	books, err := s.library.ListBooks(ctx)
	if err != nil {
		return nil, toolError("list books failed", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"books": nonNil(books),
		"count": len(books),
	})), nil
}

// handleUpdateProgress handles the update_progress tool invocation
func (s *Server) handleUpdateProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateProgressArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.UpdateProgress(ctx, args.Title, args.CFI, *args.Percentage)
	if err != nil {
		return nil, toolError("update progress failed", err, nil)
	}
	return rowsAffected(n), nil
}

// handleUpdateLocations handles the update_locations tool invocation
func (s *Server) handleUpdateLocations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateLocationsArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.UpdateLocations(ctx, args.Title, args.LocationsData)
	if err != nil {
		return nil, toolError("update locations failed", err, nil)
	}
	return rowsAffected(n), nil
}

// handleGetContent handles the get_content tool invocation. The file is
// returned as an embedded blob resource with a sniffed MIME type.
func (s *Server) handleGetContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args filenameArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	data, err := s.library.GetContent(ctx, args.Filename)
	if err != nil {
		return nil, toolError("read content failed", err, map[string]interface{}{
			"filename": args.Filename,
		})
	}

	mime := mimetype.Detect(data)
	summary := fmt.Sprintf("%s (%d bytes, %s)", args.Filename, len(data), mime.String())
	return mcp.NewToolResultResource(summary, mcp.BlobResourceContents{
		URI:      ContentURIPrefix + url.PathEscape(args.Filename),
		MIMEType: mime.String(),
		Blob:     base64.StdEncoding.EncodeToString(data),
	}), nil
}

// handleDeleteBook handles the delete_book tool invocation
func (s *Server) handleDeleteBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args titleArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	result, err := s.library.DeleteBook(ctx, args.Title)
	if err != nil {
		return nil, toolError("delete book failed", err, result)
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleWipeAll handles the wipe_all tool invocation
func (s *Server) handleWipeAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args wipeAllArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	result, err := s.library.WipeAll(ctx)
	if err != nil {
		return nil, toolError("wipe failed", err, result)
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleLibraryStats handles the library_stats tool invocation
func (s *Server) handleLibraryStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.library.Stats(ctx)
	if err != nil {
		return nil, toolError("failed to get stats", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(stats)), nil
}

// Annotation handlers

// handleAddHighlight handles the add_highlight tool invocation
func (s *Server) handleAddHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addHighlightArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	h, err := s.library.AddHighlight(ctx, args.BookTitle, args.CFI, args.Text, args.Color, args.Notes)
	if err != nil {
		return nil, toolError("add highlight failed", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(h)), nil
}

// handleListHighlights handles the list_highlights tool invocation
func (s *Server) handleListHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args bookTitleArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	highlights, err := s.library.ListHighlights(ctx, args.BookTitle)
	if err != nil {
		return nil, toolError("list highlights failed", err, nil)
	}
	return highlightList(highlights), nil
}

func (s *Server) handleListAllHighlights(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	highlights, err := s.library.ListAllHighlights(ctx)
	if err != nil {
		return nil, toolError("list highlights failed", err, nil)
	}
	return highlightList(highlights), nil
}

func (s *Server) handleUpdateHighlightNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args updateNotesArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.UpdateHighlightNotes(ctx, args.ID, args.Notes)
	if err != nil {
		return nil, toolError("update notes failed", err, nil)
	}
	return rowsAffected(n), nil
}

func (s *Server) handleDeleteHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.DeleteHighlight(ctx, args.ID)
	if err != nil {
		return nil, toolError("delete highlight failed", err, nil)
	}
	return rowsAffected(n), nil
}

func (s *Server) handleAddBookmark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args addBookmarkArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	b, err := s.library.AddBookmark(ctx, args.BookTitle, args.CFI, args.Label)
	if err != nil {
		return nil, toolError("add bookmark failed", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(b)), nil
}

func (s *Server) handleListBookmarks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args bookTitleArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	bookmarks, err := s.library.ListBookmarks(ctx, args.BookTitle)
	if err != nil {
		return nil, toolError("list bookmarks failed", err, nil)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"bookmarks": nonNil(bookmarks),
		"count":     len(bookmarks),
	})), nil
}

func (s *Server) handleDeleteBookmark(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.DeleteBookmark(ctx, args.ID)
	if err != nil {
		return nil, toolError("delete bookmark failed", err, nil)
	}
	return rowsAffected(n), nil
}

// Collection handlers

// handleCreateCollection handles the create_collection tool invocation
func (s *Server) handleCreateCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args createCollectionArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	c, err := s.library.CreateCollection(ctx, args.Name, args.Emoji)
	if err != nil {
		return nil, toolError("create collection failed", err, map[string]interface{}{
			"name": args.Name,
		})
	}
	return mcp.NewToolResultText(formatJSON(c)), nil
}

func (s *Server) handleListCollections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collections, err := s.library.ListCollections(ctx)
	if err != nil {
		return nil, toolError("list collections failed", err, nil)
	}
	return collectionList(collections), nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args idArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.DeleteCollection(ctx, args.ID)
	if err != nil {
		return nil, toolError("delete collection failed", err, nil)
	}
	return rowsAffected(n), nil
}

// handleLinkHighlight handles the link_highlight_to_collection tool invocation
func (s *Server) handleLinkHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args linkArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	if err := s.library.LinkHighlightToCollection(ctx, args.HighlightID, args.CollectionID); err != nil {
		return nil, toolError("link failed", err, args)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"linked":        true,
		"highlight_id":  args.HighlightID,
		"collection_id": args.CollectionID,
	})), nil
}

func (s *Server) handleUnlinkHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args linkArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	n, err := s.library.UnlinkHighlightFromCollection(ctx, args.HighlightID, args.CollectionID)
	if err != nil {
		return nil, toolError("unlink failed", err, args)
	}
	return rowsAffected(n), nil
}

func (s *Server) handleHighlightsInCollection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args collectionIDArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	highlights, err := s.library.HighlightsInCollection(ctx, args.CollectionID)
	if err != nil {
		return nil, toolError("list collection highlights failed", err, nil)
	}
	return highlightList(highlights), nil
}

func (s *Server) handleCollectionsOfHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args highlightIDArgs
	if err := s.bind(request, &args); err != nil {
		return nil, err
	}

	collections, err := s.library.CollectionsOfHighlight(ctx, args.HighlightID)
	if err != nil {
		return nil, toolError("list highlight collections failed", err, nil)
	}
	return collectionList(collections), nil
}

// bind decodes the request arguments into target and validates its tags
func (s *Server) bind(request mcp.CallToolRequest, target any) error {
	if err := request.BindArguments(target); err != nil {
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	if err := s.validate.Validate(target); err != nil {
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}
	return nil
}

// toolError maps a library error onto an MCP error code
func toolError(message string, err error, data interface{}) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		code = ErrorCodeInvalidParams
	case errors.Is(err, types.ErrNotFound):
		code = ErrorCodeNotFound
	case errors.Is(err, types.ErrConstraint):
		code = ErrorCodeConstraint
	case errors.Is(err, types.ErrPartialFailure):
		code = ErrorCodePartialFailure
	}
	return newMCPError(code, fmt.Sprintf("%s: %v", message, err), data)
}

func rowsAffected(n int64) *mcp.CallToolResult {
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"rows_affected": n,
	}))
}

func highlightList(highlights []*types.Highlight) *mcp.CallToolResult {
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"highlights": nonNil(highlights),
		"count":      len(highlights),
	}))
}

func collectionList(collections []*types.Collection) *mcp.CallToolResult {
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"collections": nonNil(collections),
		"count":       len(collections),
	}))
}

// nonNil keeps empty lists encoding as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// newMCPError creates a new MCP error with code, message, and optional data
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
