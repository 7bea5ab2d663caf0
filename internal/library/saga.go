package library

import (
	"context"
	"fmt"

	"github.com/dshills/shelf-mcp/internal/storage"
	"github.com/dshills/shelf-mcp/pkg/types"
)

// DeleteBook removes a book in a fixed order: filename lookup, then one
// transaction deleting the book's highlights (with their collection links)
// and its catalog row, then the content file. The lock is held throughout.
//
// If the file cannot be removed after the commit, the database changes
// stay, the result has Status DeleteFileOrphaned and the error wraps
// types.ErrPartialFailure. Bookmarks of the book are not touched.
func (l *Library) DeleteBook(ctx context.Context, title string) (types.DeleteResult, error) {
	result := types.DeleteResult{Title: title}
	if err := requireNonEmpty("title", title); err != nil {
		return result, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	filename, err := l.store.GetBookFilename(ctx, title)
	if err != nil {
		return result, err
	}
	result.Filename = filename

	err = l.withTx(ctx, func(tx storage.Tx) error {
		n, err := tx.DeleteHighlightsByBook(ctx, title)
		if err != nil {
			return err
		}
		result.HighlightsDeleted = n
		_, err = tx.DeleteBook(ctx, title)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("delete book %q: %w", title, err)
	}

	if err := l.content.Delete(filename); err != nil {
		result.Status = types.DeleteFileOrphaned
		l.logger.Error("book deleted but content file remains",
			"title", title, "filename", filename, "error", err)
		return result, fmt.Errorf("delete book %q: file %s orphaned: %w: %w",
			title, filename, types.ErrPartialFailure, err)
	}

	result.Status = types.DeleteApplied
	l.logger.Info("book deleted",
		"title", title, "filename", filename, "highlights", result.HighlightsDeleted)
	return result, nil
}

// WipeAll deletes every highlight, book and bookmark, reclaims database
// space and empties the content directory. Collections are kept; links
// to the removed highlights go with them.
func (l *Library) WipeAll(ctx context.Context) (types.WipeResult, error) {
	var result types.WipeResult

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.withTx(ctx, func(tx storage.Tx) error {
		var err error
		if result.HighlightsDeleted, err = tx.DeleteAllHighlights(ctx); err != nil {
			return err
		}
		if result.BooksDeleted, err = tx.DeleteAllBooks(ctx); err != nil {
			return err
		}
		result.BookmarksDeleted, err = tx.DeleteAllBookmarks(ctx)
		return err
	})
	if err != nil {
		return types.WipeResult{}, fmt.Errorf("wipe library: %w", err)
	}

	if err := l.store.Vacuum(ctx); err != nil {
		l.logger.Error("library rows wiped but vacuum failed", "error", err)
		return result, fmt.Errorf("wipe library: %w: %w", types.ErrPartialFailure, err)
	}

	if err := l.content.Wipe(); err != nil {
		l.logger.Error("library rows wiped but content directory remains", "error", err)
		return result, fmt.Errorf("wipe library: %w: %w", types.ErrPartialFailure, err)
	}
	result.ContentWiped = true

	l.logger.Warn("library wiped",
		"books", result.BooksDeleted,
		"highlights", result.HighlightsDeleted,
		"bookmarks", result.BookmarksDeleted)
	return result, nil
}

// withTx runs fn in a storage transaction, committing only if fn succeeds.
func (l *Library) withTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
