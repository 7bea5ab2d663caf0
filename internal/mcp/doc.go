// Package mcp exposes the reading library as Model Context Protocol tools.
//
// The server speaks JSON-RPC 2.0 over stdio and registers one tool per
// library operation:
//
//   - Catalog: add_book, list_books, update_progress, update_locations,
//     get_content, delete_book, wipe_all, library_stats
//   - Annotations: add_highlight, list_highlights, list_all_highlights,
//     update_highlight_notes, delete_highlight, add_bookmark,
//     list_bookmarks, delete_bookmark
//   - Collections: create_collection, list_collections, delete_collection,
//     link_highlight_to_collection, unlink_highlight_from_collection,
//     highlights_in_collection, collections_of_highlight
//
// # Basic Usage
//
//	shelf serve
//
// stdout carries protocol messages only; logs go to stderr or the
// configured log file.
//
// # Tool: add_book
//
// Book content travels base64 encoded:
//
//	Request:
//	{
//	  "name": "add_book",
//	  "arguments": {
//	    "title": "Dune",
//	    "filename": "dune.epub",
//	    "data": "UEsDBBQAAAAIAA..."
//	  }
//	}
//
//	Response:
//	{
//	  "id": 1,
//	  "title": "Dune",
//	  "filename": "dune.epub",
//	  "last_cfi": "",
//	  "cover": null,
//	  "locations_data": null,
//	  "last_percentage": 0,
//	  "created_at": "2026-01-02T10:00:00Z"
//	}
//
// get_content answers with an embedded blob resource whose URI is
// shelf://books/<filename>.
//
// # Tool: delete_book
//
// The response reports how far the deletion got. When the content file
// could not be removed the call fails with code -32003 and the error data
// holds the same result with status "file_orphaned".
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing or malformed arguments)
//   - -32603: Internal error (database, filesystem)
//   - -32001: Not found (title, id or content file)
//   - -32002: Constraint violation (duplicate collection name)
//   - -32003: Partial failure (database committed, file step failed)
//
// Update and delete tools never fail for unknown ids or titles; they
// return {"rows_affected": 0}.
package mcp
