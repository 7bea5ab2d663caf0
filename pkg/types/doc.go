// Package types provides shared record and error definitions for shelf.
//
// These are the values that cross package boundaries: the storage layer
// scans rows into them, the library facade returns them, and the MCP
// layer encodes them as JSON.
//
// # Records
//
// Book is the catalog row for one stored e-book. Its Title is the external
// key used by every other record:
//
//	book := &types.Book{
//	    Title:    "Moby Dick",
//	    Filename: "moby-dick.epub",
//	}
//
// Highlight and Bookmark reference a book by title only. The reference is
// matched by value and is not enforced by the database, so a highlight
// may outlive or predate the book it names.
//
// Collection groups highlights. The link between the two is many-to-many
// and a given pair is stored at most once.
//
// # Errors
//
// Callers classify failures with errors.Is against the sentinels in
// errors.go:
//
//	if errors.Is(err, types.ErrNotFound) {
//	    // title, id or file is absent
//	}
//
// Updates and deletes addressed to a key that does not exist are not
// errors; they succeed with zero effect.
package types
