package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dshills/shelf-mcp/pkg/types"
)

const bookColumns = `id, title, filename, last_cfi, cover, locations_data, last_percentage, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (*types.Book, error) {
	var book types.Book
	var cover, locations sql.NullString
	var createdAt string
	err := row.Scan(
		&book.ID, &book.Title, &book.Filename, &book.LastCFI,
		&cover, &locations, &book.LastPercentage, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if cover.Valid {
		book.Cover = &cover.String
	}
	if locations.Valid {
		book.LocationsData = &locations.String
	}
	if book.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &book, nil
}

// Catalog operations

// insertBookWithQuerier is the internal implementation that uses a querier.
// An existing row with the same title is left untouched and returned.
func (s *SQLiteStorage) insertBookWithQuerier(ctx context.Context, q querier, book types.NewBook) (*types.Book, error) {
	query := `
		INSERT OR IGNORE INTO books (title, filename, cover, created_at)
		VALUES (?, ?, ?, ?)
	`
	ts, _ := s.timestamp()
	if _, err := q.ExecContext(ctx, query, book.Title, book.Filename, book.Cover, ts); err != nil {
		return nil, classify(err, "failed to insert book")
	}
	return s.getBookWithQuerier(ctx, q, book.Title)
}

func (s *SQLiteStorage) InsertBook(ctx context.Context, book types.NewBook) (*types.Book, error) {
	return s.insertBookWithQuerier(ctx, s.querier(), book)
}

// getBookWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getBookWithQuerier(ctx context.Context, q querier, title string) (*types.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE title = ?`
	book, err := scanBook(q.QueryRowContext(ctx, query, title))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("book %q", title))
	}
	return book, nil
}

func (s *SQLiteStorage) GetBook(ctx context.Context, title string) (*types.Book, error) {
	return s.getBookWithQuerier(ctx, s.querier(), title)
}

// getBookFilenameWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getBookFilenameWithQuerier(ctx context.Context, q querier, title string) (string, error) {
	var filename string
	err := q.QueryRowContext(ctx, `SELECT filename FROM books WHERE title = ?`, title).Scan(&filename)
	if err != nil {
		return "", notFound(err, fmt.Sprintf("book %q", title))
	}
	return filename, nil
}

func (s *SQLiteStorage) GetBookFilename(ctx context.Context, title string) (string, error) {
	return s.getBookFilenameWithQuerier(ctx, s.querier(), title)
}

// listBooksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listBooksWithQuerier(ctx context.Context, q querier) ([]*types.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC, id DESC`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	books := make([]*types.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (s *SQLiteStorage) ListBooks(ctx context.Context) ([]*types.Book, error) {
	return s.listBooksWithQuerier(ctx, s.querier())
}

// updateProgressWithQuerier is the internal implementation that uses a querier.
// An unknown title affects zero rows and is not an error.
func (s *SQLiteStorage) updateProgressWithQuerier(ctx context.Context, q querier, title, cfi string, percentage float64) (int64, error) {
	query := `UPDATE books SET last_cfi = ?, last_percentage = ? WHERE title = ?`
	n, err := rowsAffected(q.ExecContext(ctx, query, cfi, percentage, title))
	if err != nil {
		return 0, fmt.Errorf("failed to update progress: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) UpdateProgress(ctx context.Context, title, cfi string, percentage float64) (int64, error) {
	return s.updateProgressWithQuerier(ctx, s.querier(), title, cfi, percentage)
}

// updateLocationsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateLocationsWithQuerier(ctx context.Context, q querier, title, locationsData string) (int64, error) {
	query := `UPDATE books SET locations_data = ? WHERE title = ?`
	n, err := rowsAffected(q.ExecContext(ctx, query, locationsData, title))
	if err != nil {
		return 0, fmt.Errorf("failed to update locations: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) UpdateLocations(ctx context.Context, title, locationsData string) (int64, error) {
	return s.updateLocationsWithQuerier(ctx, s.querier(), title, locationsData)
}

// deleteBookWithQuerier removes the catalog row only; highlights are the
// caller's responsibility so the order of the cascade stays explicit.
func (s *SQLiteStorage) deleteBookWithQuerier(ctx context.Context, q querier, title string) (int64, error) {
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM books WHERE title = ?`, title))
	if err != nil {
		return 0, fmt.Errorf("failed to delete book: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteBook(ctx context.Context, title string) (int64, error) {
	return s.deleteBookWithQuerier(ctx, s.querier(), title)
}

// deleteAllBooksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteAllBooksWithQuerier(ctx context.Context, q querier) (int64, error) {
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM books`))
	if err != nil {
		return 0, fmt.Errorf("failed to delete books: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteAllBooks(ctx context.Context) (int64, error) {
	return s.deleteAllBooksWithQuerier(ctx, s.querier())
}
