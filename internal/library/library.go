package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dshills/shelf-mcp/internal/content"
	"github.com/dshills/shelf-mcp/internal/storage"
	"github.com/dshills/shelf-mcp/pkg/types"
)

// ContentStore is the file side of the library. *content.Store implements it.
type ContentStore interface {
	Write(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	Delete(filename string) error
	Wipe() error
	Count() (int, error)
}

// Library coordinates the relational store and the content directory.
// Every database operation runs under mu, so the single SQLite connection
// only ever sees one logical operation at a time.
type Library struct {
	mu      sync.Mutex
	store   storage.Storage
	content ContentStore
	logger  *slog.Logger
}

// New wires an already opened store and content directory together.
func New(store storage.Storage, contentStore ContentStore, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Library{
		store:   store,
		content: contentStore,
		logger:  logger.With(slog.String("component", "library")),
	}
}

// Open creates the storage location if needed, opens the database at
// dbPath and the content directory at booksDir. An error here means the
// library is unusable and the process should stop.
func Open(dbPath, booksDir string, logger *slog.Logger, opts ...storage.Option) (*Library, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	contentStore, err := content.NewStore(booksDir)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	lib := New(store, contentStore, logger)
	if report := store.Migrations(); report != nil && len(report.Applied) > 0 {
		lib.logger.Info("schema upgraded", "columns", report.Applied)
	}
	return lib, nil
}

// Close releases the database connection.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Close()
}

// Catalog operations

// AddBook writes the content file and then records the book. If the title
// is already catalogued the existing row is returned unchanged; only the
// file on disk is replaced.
func (l *Library) AddBook(ctx context.Context, title, filename string, cover *string, data []byte) (*types.Book, error) {
	if err := requireNonEmpty("title", title); err != nil {
		return nil, err
	}
	if err := requireNonEmpty("filename", filename); err != nil {
		return nil, err
	}

	// Content I/O stays outside the lock.
	path, err := l.content.Write(filename, data)
	if err != nil {
		return nil, err
	}
	mime := mimetype.Detect(data)
	l.logger.Debug("book content written",
		"title", title, "path", path, "bytes", len(data), "mime", mime.String())

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.InsertBook(ctx, types.NewBook{Title: title, Filename: filename, Cover: cover})
}

// ListBooks returns the catalog, newest first.
func (l *Library) ListBooks(ctx context.Context) ([]*types.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListBooks(ctx)
}

// UpdateProgress records the reading position. An unknown title changes
// nothing and reports zero rows.
func (l *Library) UpdateProgress(ctx context.Context, title, cfi string, percentage float64) (int64, error) {
	if err := requireNonEmpty("title", title); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateProgress(ctx, title, cfi, percentage)
}

// UpdateLocations stores the serialized pagination cache for a book.
func (l *Library) UpdateLocations(ctx context.Context, title, locationsData string) (int64, error) {
	if err := requireNonEmpty("title", title); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateLocations(ctx, title, locationsData)
}

// GetContent reads a book's file. It does not consult the catalog, so a
// row whose file went missing still yields types.ErrNotFound.
func (l *Library) GetContent(_ context.Context, filename string) ([]byte, error) {
	if err := requireNonEmpty("filename", filename); err != nil {
		return nil, err
	}
	return l.content.Read(filename)
}

// Annotation operations

// AddHighlight stores a highlight. An empty color falls back to
// types.DefaultHighlightColor.
func (l *Library) AddHighlight(ctx context.Context, bookTitle, cfi, text, color, notes string) (*types.Highlight, error) {
	if err := requireNonEmpty("book_title", bookTitle); err != nil {
		return nil, err
	}
	h := &types.Highlight{BookTitle: bookTitle, CFI: cfi, Text: text, Color: color, Notes: notes}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.InsertHighlight(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (l *Library) ListHighlights(ctx context.Context, bookTitle string) ([]*types.Highlight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListHighlights(ctx, bookTitle)
}

func (l *Library) ListAllHighlights(ctx context.Context) ([]*types.Highlight, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListAllHighlights(ctx)
}

func (l *Library) UpdateHighlightNotes(ctx context.Context, id int64, notes string) (int64, error) {
	if err := requirePositive("id", id); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateHighlightNotes(ctx, id, notes)
}

// DeleteHighlight removes a highlight and its collection links.
func (l *Library) DeleteHighlight(ctx context.Context, id int64) (int64, error) {
	if err := requirePositive("id", id); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteHighlight(ctx, id)
}

func (l *Library) AddBookmark(ctx context.Context, bookTitle, cfi, label string) (*types.Bookmark, error) {
	if err := requireNonEmpty("book_title", bookTitle); err != nil {
		return nil, err
	}
	b := &types.Bookmark{BookTitle: bookTitle, CFI: cfi, Label: label}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.InsertBookmark(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Library) ListBookmarks(ctx context.Context, bookTitle string) ([]*types.Bookmark, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListBookmarks(ctx, bookTitle)
}

func (l *Library) DeleteBookmark(ctx context.Context, id int64) (int64, error) {
	if err := requirePositive("id", id); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteBookmark(ctx, id)
}

// Collection operations

// CreateCollection fails with types.ErrConstraint when name is taken.
func (l *Library) CreateCollection(ctx context.Context, name, emoji string) (*types.Collection, error) {
	if err := requireNonEmpty("name", name); err != nil {
		return nil, err
	}
	c := &types.Collection{Name: name, Emoji: emoji}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.InsertCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCollections returns every collection sorted by name.
func (l *Library) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListCollections(ctx)
}

func (l *Library) DeleteCollection(ctx context.Context, id int64) (int64, error) {
	if err := requirePositive("id", id); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteCollection(ctx, id)
}

func (l *Library) LinkHighlightToCollection(ctx context.Context, highlightID, collectionID int64) error {
	if err := requirePositive("highlight_id", highlightID); err != nil {
		return err
	}
	if err := requirePositive("collection_id", collectionID); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.LinkHighlight(ctx, highlightID, collectionID)
}

func (l *Library) UnlinkHighlightFromCollection(ctx context.Context, highlightID, collectionID int64) (int64, error) {
	if err := requirePositive("highlight_id", highlightID); err != nil {
		return 0, err
	}
	if err := requirePositive("collection_id", collectionID); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UnlinkHighlight(ctx, highlightID, collectionID)
}

// HighlightsInCollection returns the collection's highlights, newest first.
func (l *Library) HighlightsInCollection(ctx context.Context, collectionID int64) ([]*types.Highlight, error) {
	if err := requirePositive("collection_id", collectionID); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListHighlightsInCollection(ctx, collectionID)
}

// CollectionsOfHighlight returns the collections a highlight belongs to,
// sorted by name.
func (l *Library) CollectionsOfHighlight(ctx context.Context, highlightID int64) ([]*types.Collection, error) {
	if err := requirePositive("highlight_id", highlightID); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListCollectionsOfHighlight(ctx, highlightID)
}

// Stats counts rows per table and files in the content directory.
func (l *Library) Stats(ctx context.Context) (*types.Stats, error) {
	l.mu.Lock()
	stats, err := l.store.GetStats(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if stats.ContentFiles, err = l.content.Count(); err != nil {
		return nil, err
	}
	return stats, nil
}

func requireNonEmpty(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty: %w", field, types.ErrInvalidArgument)
	}
	return nil
}

func requirePositive(field string, value int64) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %d: %w", field, value, types.ErrInvalidArgument)
	}
	return nil
}
