package storage

import (
	"context"

	"github.com/dshills/shelf-mcp/pkg/types"
)

// Storage defines the relational half of the library: catalog rows,
// annotations and collections. Implementations do no locking of their
// own; callers serialize access (see internal/library).
type Storage interface {
	// Catalog operations
	InsertBook(ctx context.Context, book types.NewBook) (*types.Book, error)
	GetBook(ctx context.Context, title string) (*types.Book, error)
	GetBookFilename(ctx context.Context, title string) (string, error)
	ListBooks(ctx context.Context) ([]*types.Book, error)
	UpdateProgress(ctx context.Context, title, cfi string, percentage float64) (int64, error)
	UpdateLocations(ctx context.Context, title, locationsData string) (int64, error)
	DeleteBook(ctx context.Context, title string) (int64, error)
	DeleteAllBooks(ctx context.Context) (int64, error)

	// Highlight operations
	InsertHighlight(ctx context.Context, highlight *types.Highlight) error
	GetHighlight(ctx context.Context, id int64) (*types.Highlight, error)
	ListHighlights(ctx context.Context, bookTitle string) ([]*types.Highlight, error)
	ListAllHighlights(ctx context.Context) ([]*types.Highlight, error)
	UpdateHighlightNotes(ctx context.Context, id int64, notes string) (int64, error)
	DeleteHighlight(ctx context.Context, id int64) (int64, error)
	DeleteHighlightsByBook(ctx context.Context, bookTitle string) (int64, error)
	DeleteAllHighlights(ctx context.Context) (int64, error)

	// Bookmark operations
	InsertBookmark(ctx context.Context, bookmark *types.Bookmark) error
	ListBookmarks(ctx context.Context, bookTitle string) ([]*types.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) (int64, error)
	DeleteAllBookmarks(ctx context.Context) (int64, error)

	// Collection operations
	InsertCollection(ctx context.Context, collection *types.Collection) error
	ListCollections(ctx context.Context) ([]*types.Collection, error)
	DeleteCollection(ctx context.Context, id int64) (int64, error)
	LinkHighlight(ctx context.Context, highlightID, collectionID int64) error
	UnlinkHighlight(ctx context.Context, highlightID, collectionID int64) (int64, error)
	ListHighlightsInCollection(ctx context.Context, collectionID int64) ([]*types.Highlight, error)
	ListCollectionsOfHighlight(ctx context.Context, highlightID int64) ([]*types.Collection, error)

	// Status operations
	GetStats(ctx context.Context) (*types.Stats, error)

	// Database operations
	Vacuum(ctx context.Context) error
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}
