package storage

import (
	"context"
	"fmt"

	"github.com/dshills/shelf-mcp/pkg/types"
)

const highlightColumns = `id, book_title, cfi, text, color, notes, created_at`

func scanHighlight(row rowScanner) (*types.Highlight, error) {
	var h types.Highlight
	var createdAt string
	err := row.Scan(&h.ID, &h.BookTitle, &h.CFI, &h.Text, &h.Color, &h.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHighlights(ctx context.Context, q querier, query string, args ...interface{}) ([]*types.Highlight, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	highlights := make([]*types.Highlight, 0)
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	return highlights, rows.Err()
}

// Highlight operations

// insertHighlightWithQuerier is the internal implementation that uses a querier.
// The id and created_at are filled in on the passed highlight.
func (s *SQLiteStorage) insertHighlightWithQuerier(ctx context.Context, q querier, h *types.Highlight) error {
	if h.Color == "" {
		h.Color = types.DefaultHighlightColor
	}
	query := `
		INSERT INTO highlights (book_title, cfi, text, color, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	ts, now := s.timestamp()
	result, err := q.ExecContext(ctx, query, h.BookTitle, h.CFI, h.Text, h.Color, h.Notes, ts)
	if err != nil {
		return classify(err, "failed to insert highlight")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	h.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertHighlight(ctx context.Context, h *types.Highlight) error {
	return s.insertHighlightWithQuerier(ctx, s.querier(), h)
}

// getHighlightWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getHighlightWithQuerier(ctx context.Context, q querier, id int64) (*types.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights WHERE id = ?`
	h, err := scanHighlight(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("highlight %d", id))
	}
	return h, nil
}

func (s *SQLiteStorage) GetHighlight(ctx context.Context, id int64) (*types.Highlight, error) {
	return s.getHighlightWithQuerier(ctx, s.querier(), id)
}

// listHighlightsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listHighlightsWithQuerier(ctx context.Context, q querier, bookTitle string) ([]*types.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights WHERE book_title = ? ORDER BY created_at DESC, id DESC`
	return collectHighlights(ctx, q, query, bookTitle)
}

func (s *SQLiteStorage) ListHighlights(ctx context.Context, bookTitle string) ([]*types.Highlight, error) {
	return s.listHighlightsWithQuerier(ctx, s.querier(), bookTitle)
}

// listAllHighlightsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listAllHighlightsWithQuerier(ctx context.Context, q querier) ([]*types.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights ORDER BY created_at DESC, id DESC`
	return collectHighlights(ctx, q, query)
}

func (s *SQLiteStorage) ListAllHighlights(ctx context.Context) ([]*types.Highlight, error) {
	return s.listAllHighlightsWithQuerier(ctx, s.querier())
}

// updateHighlightNotesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateHighlightNotesWithQuerier(ctx context.Context, q querier, id int64, notes string) (int64, error) {
	n, err := rowsAffected(q.ExecContext(ctx, `UPDATE highlights SET notes = ? WHERE id = ?`, notes, id))
	if err != nil {
		return 0, fmt.Errorf("failed to update highlight notes: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) UpdateHighlightNotes(ctx context.Context, id int64, notes string) (int64, error) {
	return s.updateHighlightNotesWithQuerier(ctx, s.querier(), id, notes)
}

// deleteHighlightWithQuerier removes the highlight's collection links and
// then the highlight itself.
func (s *SQLiteStorage) deleteHighlightWithQuerier(ctx context.Context, q querier, id int64) (int64, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM highlight_collections WHERE highlight_id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to unlink highlight: %w", err)
	}
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete highlight: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteHighlight(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(q querier) error {
		var err error
		n, err = s.deleteHighlightWithQuerier(ctx, q, id)
		return err
	})
	return n, err
}

// deleteHighlightsByBookWithQuerier removes every highlight whose book_title
// matches, together with their collection links.
func (s *SQLiteStorage) deleteHighlightsByBookWithQuerier(ctx context.Context, q querier, bookTitle string) (int64, error) {
	unlink := `
		DELETE FROM highlight_collections
		WHERE highlight_id IN (SELECT id FROM highlights WHERE book_title = ?)
	`
	if _, err := q.ExecContext(ctx, unlink, bookTitle); err != nil {
		return 0, fmt.Errorf("failed to unlink highlights: %w", err)
	}
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM highlights WHERE book_title = ?`, bookTitle))
	if err != nil {
		return 0, fmt.Errorf("failed to delete highlights: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteHighlightsByBook(ctx context.Context, bookTitle string) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(q querier) error {
		var err error
		n, err = s.deleteHighlightsByBookWithQuerier(ctx, q, bookTitle)
		return err
	})
	return n, err
}

// deleteAllHighlightsWithQuerier clears highlights and the links that point
// at them. Collections themselves are kept.
func (s *SQLiteStorage) deleteAllHighlightsWithQuerier(ctx context.Context, q querier) (int64, error) {
	unlink := `DELETE FROM highlight_collections WHERE highlight_id IN (SELECT id FROM highlights)`
	if _, err := q.ExecContext(ctx, unlink); err != nil {
		return 0, fmt.Errorf("failed to unlink highlights: %w", err)
	}
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM highlights`))
	if err != nil {
		return 0, fmt.Errorf("failed to delete highlights: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteAllHighlights(ctx context.Context) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(q querier) error {
		var err error
		n, err = s.deleteAllHighlightsWithQuerier(ctx, q)
		return err
	})
	return n, err
}

// Bookmark operations

const bookmarkColumns = `id, book_title, cfi, label, created_at`

func scanBookmark(row rowScanner) (*types.Bookmark, error) {
	var b types.Bookmark
	var createdAt string
	if err := row.Scan(&b.ID, &b.BookTitle, &b.CFI, &b.Label, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// insertBookmarkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertBookmarkWithQuerier(ctx context.Context, q querier, b *types.Bookmark) error {
	query := `
		INSERT INTO bookmarks (book_title, cfi, label, created_at)
		VALUES (?, ?, ?, ?)
	`
	ts, now := s.timestamp()
	result, err := q.ExecContext(ctx, query, b.BookTitle, b.CFI, b.Label, ts)
	if err != nil {
		return classify(err, "failed to insert bookmark")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	b.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertBookmark(ctx context.Context, b *types.Bookmark) error {
	return s.insertBookmarkWithQuerier(ctx, s.querier(), b)
}

// listBookmarksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listBookmarksWithQuerier(ctx context.Context, q querier, bookTitle string) ([]*types.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE book_title = ? ORDER BY created_at DESC, id DESC`
	rows, err := q.QueryContext(ctx, query, bookTitle)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	bookmarks := make([]*types.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (s *SQLiteStorage) ListBookmarks(ctx context.Context, bookTitle string) ([]*types.Bookmark, error) {
	return s.listBookmarksWithQuerier(ctx, s.querier(), bookTitle)
}

// deleteBookmarkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteBookmarkWithQuerier(ctx context.Context, q querier, id int64) (int64, error) {
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteBookmark(ctx context.Context, id int64) (int64, error) {
	return s.deleteBookmarkWithQuerier(ctx, s.querier(), id)
}

// deleteAllBookmarksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteAllBookmarksWithQuerier(ctx context.Context, q querier) (int64, error) {
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM bookmarks`))
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookmarks: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteAllBookmarks(ctx context.Context) (int64, error) {
	return s.deleteAllBookmarksWithQuerier(ctx, s.querier())
}
