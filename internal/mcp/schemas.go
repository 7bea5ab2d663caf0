package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func idProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
		"minimum":     1,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) mcp.ToolInputSchema {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// Catalog tools

// addBookTool returns the tool definition for add_book
func addBookTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_book",
		Description: "Store a book file and add it to the catalog. Adding an existing title keeps its catalog entry and only replaces the file",
		InputSchema: objectSchema(map[string]interface{}{
			"title":    stringProp("Unique book title; identifies the book everywhere"),
			"filename": stringProp("Name of the content file inside the books directory"),
			"cover":    stringProp("Optional cover reference, for example a data URL"),
			"data":     stringProp("Book file content, base64 encoded"),
		}, "title", "filename", "data"),
	}
}

// listBooksTool returns the tool definition for list_books
func listBooksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_books",
		Description: "List all books, most recently added first",
		InputSchema: objectSchema(nil),
	}
}

// updateProgressTool returns the tool definition for update_progress
func updateProgressTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_progress",
		Description: "Record the reading position of a book. Unknown titles are ignored",
		InputSchema: objectSchema(map[string]interface{}{
			"title": stringProp("Book title"),
			"cfi":   stringProp("EPUB CFI of the current position"),
			"percentage": map[string]interface{}{
				"type":        "number",
				"description": "Fraction of the book read",
			},
		}, "title", "cfi", "percentage"),
	}
}

// updateLocationsTool returns the tool definition for update_locations
func updateLocationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_locations",
		Description: "Store the serialized pagination cache of a book. Unknown titles are ignored",
		InputSchema: objectSchema(map[string]interface{}{
			"title":          stringProp("Book title"),
			"locations_data": stringProp("Serialized locations, stored as is"),
		}, "title", "locations_data"),
	}
}

// getContentTool returns the tool definition for get_content
func getContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_content",
		Description: "Read a book file. Returns it as an embedded base64 resource",
		InputSchema: objectSchema(map[string]interface{}{
			"filename": stringProp("Content filename as stored in the catalog"),
		}, "filename"),
	}
}

// deleteBookTool returns the tool definition for delete_book
func deleteBookTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_book",
		Description: "Delete a book, its highlights and its file. Bookmarks are kept",
		InputSchema: objectSchema(map[string]interface{}{
			"title": stringProp("Book title"),
		}, "title"),
	}
}

// wipeAllTool returns the tool definition for wipe_all
func wipeAllTool() mcp.Tool {
	return mcp.Tool{
		Name:        "wipe_all",
		Description: "Delete every book, highlight and bookmark and empty the books directory. Collections are kept",
		InputSchema: objectSchema(map[string]interface{}{
			"confirm": map[string]interface{}{
				"type":        "boolean",
				"description": "Must be true",
			},
		}, "confirm"),
	}
}

// libraryStatsTool returns the tool definition for library_stats
func libraryStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "library_stats",
		Description: "Count books, highlights, bookmarks, collections and stored files",
		InputSchema: objectSchema(nil),
	}
}

// Annotation tools

// addHighlightTool returns the tool definition for add_highlight
func addHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_highlight",
		Description: "Highlight a passage in a book",
		InputSchema: objectSchema(map[string]interface{}{
			"book_title": stringProp("Title of the book"),
			"cfi":        stringProp("EPUB CFI range of the passage"),
			"text":       stringProp("Highlighted text"),
			"color": map[string]interface{}{
				"type":        "string",
				"description": "Highlight color",
				"default":     "#facc15",
			},
			"notes": stringProp("Optional note"),
		}, "book_title", "cfi", "text"),
	}
}

// listHighlightsTool returns the tool definition for list_highlights
func listHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_highlights",
		Description: "List the highlights of a book, newest first",
		InputSchema: objectSchema(map[string]interface{}{
			"book_title": stringProp("Title of the book"),
		}, "book_title"),
	}
}

// listAllHighlightsTool returns the tool definition for list_all_highlights
func listAllHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_all_highlights",
		Description: "List highlights across all books, newest first",
		InputSchema: objectSchema(nil),
	}
}

// updateHighlightNotesTool returns the tool definition for update_highlight_notes
func updateHighlightNotesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_highlight_notes",
		Description: "Replace the note of a highlight. Unknown ids are ignored",
		InputSchema: objectSchema(map[string]interface{}{
			"id":    idProp("Highlight id"),
			"notes": stringProp("New note text"),
		}, "id", "notes"),
	}
}

// deleteHighlightTool returns the tool definition for delete_highlight
func deleteHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_highlight",
		Description: "Delete a highlight and remove it from all collections",
		InputSchema: objectSchema(map[string]interface{}{
			"id": idProp("Highlight id"),
		}, "id"),
	}
}

// addBookmarkTool returns the tool definition for add_bookmark
func addBookmarkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_bookmark",
		Description: "Bookmark a position in a book",
		InputSchema: objectSchema(map[string]interface{}{
			"book_title": stringProp("Title of the book"),
			"cfi":        stringProp("EPUB CFI of the position"),
			"label":      stringProp("Bookmark label"),
		}, "book_title", "cfi", "label"),
	}
}

// listBookmarksTool returns the tool definition for list_bookmarks
func listBookmarksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_bookmarks",
		Description: "List the bookmarks of a book, newest first",
		InputSchema: objectSchema(map[string]interface{}{
			"book_title": stringProp("Title of the book"),
		}, "book_title"),
	}
}

// deleteBookmarkTool returns the tool definition for delete_bookmark
func deleteBookmarkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_bookmark",
		Description: "Delete a bookmark",
		InputSchema: objectSchema(map[string]interface{}{
			"id": idProp("Bookmark id"),
		}, "id"),
	}
}

// Collection tools

// createCollectionTool returns the tool definition for create_collection
func createCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "create_collection",
		Description: "Create a named collection of highlights. Names are unique",
		InputSchema: objectSchema(map[string]interface{}{
			"name": stringProp("Collection name"),
			"emoji": map[string]interface{}{
				"type":        "string",
				"description": "Marker shown next to the name",
				"default":     "📌",
			},
		}, "name"),
	}
}

// listCollectionsTool returns the tool definition for list_collections
func listCollectionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_collections",
		Description: "List all collections sorted by name",
		InputSchema: objectSchema(nil),
	}
}

// deleteCollectionTool returns the tool definition for delete_collection
func deleteCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_collection",
		Description: "Delete a collection. Its highlights are kept",
		InputSchema: objectSchema(map[string]interface{}{
			"id": idProp("Collection id"),
		}, "id"),
	}
}

// linkHighlightTool returns the tool definition for link_highlight_to_collection
func linkHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "link_highlight_to_collection",
		Description: "Add a highlight to a collection. Linking twice has no effect",
		InputSchema: objectSchema(map[string]interface{}{
			"highlight_id":  idProp("Highlight id"),
			"collection_id": idProp("Collection id"),
		}, "highlight_id", "collection_id"),
	}
}

// unlinkHighlightTool returns the tool definition for unlink_highlight_from_collection
func unlinkHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "unlink_highlight_from_collection",
		Description: "Remove a highlight from a collection",
		InputSchema: objectSchema(map[string]interface{}{
			"highlight_id":  idProp("Highlight id"),
			"collection_id": idProp("Collection id"),
		}, "highlight_id", "collection_id"),
	}
}

// highlightsInCollectionTool returns the tool definition for highlights_in_collection
func highlightsInCollectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "highlights_in_collection",
		Description: "List the highlights in a collection, newest first",
		InputSchema: objectSchema(map[string]interface{}{
			"collection_id": idProp("Collection id"),
		}, "collection_id"),
	}
}

// collectionsOfHighlightTool returns the tool definition for collections_of_highlight
func collectionsOfHighlightTool() mcp.Tool {
	return mcp.Tool{
		Name:        "collections_of_highlight",
		Description: "List the collections a highlight belongs to, sorted by name",
		InputSchema: objectSchema(map[string]interface{}{
			"highlight_id": idProp("Highlight id"),
		}, "highlight_id"),
	}
}
