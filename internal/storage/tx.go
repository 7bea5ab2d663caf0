package storage

import (
	"context"
	"errors"

	"github.com/dshills/shelf-mcp/pkg/types"
)

// Transaction delegates. Every method runs on the open transaction so a
// sequence of calls commits or rolls back as one unit.

func (t *sqliteTx) InsertBook(ctx context.Context, book types.NewBook) (*types.Book, error) {
	return t.storage.insertBookWithQuerier(ctx, t.querier(), book)
}

func (t *sqliteTx) GetBook(ctx context.Context, title string) (*types.Book, error) {
	return t.storage.getBookWithQuerier(ctx, t.querier(), title)
}

func (t *sqliteTx) GetBookFilename(ctx context.Context, title string) (string, error) {
	return t.storage.getBookFilenameWithQuerier(ctx, t.querier(), title)
}

func (t *sqliteTx) ListBooks(ctx context.Context) ([]*types.Book, error) {
	return t.storage.listBooksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpdateProgress(ctx context.Context, title, cfi string, percentage float64) (int64, error) {
	return t.storage.updateProgressWithQuerier(ctx, t.querier(), title, cfi, percentage)
}

func (t *sqliteTx) UpdateLocations(ctx context.Context, title, locationsData string) (int64, error) {
	return t.storage.updateLocationsWithQuerier(ctx, t.querier(), title, locationsData)
}

func (t *sqliteTx) DeleteBook(ctx context.Context, title string) (int64, error) {
	return t.storage.deleteBookWithQuerier(ctx, t.querier(), title)
}

func (t *sqliteTx) DeleteAllBooks(ctx context.Context) (int64, error) {
	return t.storage.deleteAllBooksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) InsertHighlight(ctx context.Context, highlight *types.Highlight) error {
	return t.storage.insertHighlightWithQuerier(ctx, t.querier(), highlight)
}

func (t *sqliteTx) GetHighlight(ctx context.Context, id int64) (*types.Highlight, error) {
	return t.storage.getHighlightWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListHighlights(ctx context.Context, bookTitle string) ([]*types.Highlight, error) {
	return t.storage.listHighlightsWithQuerier(ctx, t.querier(), bookTitle)
}

func (t *sqliteTx) ListAllHighlights(ctx context.Context) ([]*types.Highlight, error) {
	return t.storage.listAllHighlightsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpdateHighlightNotes(ctx context.Context, id int64, notes string) (int64, error) {
	return t.storage.updateHighlightNotesWithQuerier(ctx, t.querier(), id, notes)
}

func (t *sqliteTx) DeleteHighlight(ctx context.Context, id int64) (int64, error) {
	return t.storage.deleteHighlightWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) DeleteHighlightsByBook(ctx context.Context, bookTitle string) (int64, error) {
	return t.storage.deleteHighlightsByBookWithQuerier(ctx, t.querier(), bookTitle)
}

func (t *sqliteTx) DeleteAllHighlights(ctx context.Context) (int64, error) {
	return t.storage.deleteAllHighlightsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) InsertBookmark(ctx context.Context, bookmark *types.Bookmark) error {
	return t.storage.insertBookmarkWithQuerier(ctx, t.querier(), bookmark)
}

func (t *sqliteTx) ListBookmarks(ctx context.Context, bookTitle string) ([]*types.Bookmark, error) {
	return t.storage.listBookmarksWithQuerier(ctx, t.querier(), bookTitle)
}

func (t *sqliteTx) DeleteBookmark(ctx context.Context, id int64) (int64, error) {
	return t.storage.deleteBookmarkWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) DeleteAllBookmarks(ctx context.Context) (int64, error) {
	return t.storage.deleteAllBookmarksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) InsertCollection(ctx context.Context, collection *types.Collection) error {
	return t.storage.insertCollectionWithQuerier(ctx, t.querier(), collection)
}

func (t *sqliteTx) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	return t.storage.listCollectionsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) DeleteCollection(ctx context.Context, id int64) (int64, error) {
	return t.storage.deleteCollectionWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) LinkHighlight(ctx context.Context, highlightID, collectionID int64) error {
	return t.storage.linkHighlightWithQuerier(ctx, t.querier(), highlightID, collectionID)
}

func (t *sqliteTx) UnlinkHighlight(ctx context.Context, highlightID, collectionID int64) (int64, error) {
	return t.storage.unlinkHighlightWithQuerier(ctx, t.querier(), highlightID, collectionID)
}

func (t *sqliteTx) ListHighlightsInCollection(ctx context.Context, collectionID int64) ([]*types.Highlight, error) {
	return t.storage.listHighlightsInCollectionWithQuerier(ctx, t.querier(), collectionID)
}

func (t *sqliteTx) ListCollectionsOfHighlight(ctx context.Context, highlightID int64) ([]*types.Collection, error) {
	return t.storage.listCollectionsOfHighlightWithQuerier(ctx, t.querier(), highlightID)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*types.Stats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Vacuum(ctx context.Context) error {
	// SQLite cannot VACUUM inside a transaction
	return errors.New("vacuum is not allowed inside a transaction")
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
