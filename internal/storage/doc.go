// Package storage provides SQLite-based persistence for the reading library.
//
// The storage layer manages:
//   - The book catalog (title, stored filename, reading position, cover)
//   - Highlights and their free-text notes
//   - Bookmarks
//   - Collections and the highlight-to-collection links
//
// # Database Schema
//
// Tables:
//   - books: one row per imported book, keyed by its unique title
//   - highlights: text ranges marked inside a book, referenced by book_title
//   - bookmarks: saved positions inside a book
//   - collections: named groups with an emoji marker
//   - highlight_collections: many-to-many links, cascading on either side
//
// Highlights and bookmarks refer to books by title with no foreign key.
// Removing a book's highlights is therefore an explicit step of deleting the
// book; bookmarks are left behind.
//
// # Schema Evolution
//
// ApplyMigrations runs at every open. It creates missing tables and then
// tries each entry of AllMigrations. A "duplicate column name" answer means
// the column is already there and the step is skipped, so databases written
// by any older release open cleanly. No version number is stored.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("highlights.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	book, err := db.InsertBook(ctx, types.NewBook{
//	    Title:    "Dune",
//	    Filename: "Dune.epub",
//	})
//
// # Transactions
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if _, err := tx.DeleteHighlightsByBook(ctx, "Dune"); err != nil {
//	    return err
//	}
//	if _, err := tx.DeleteBook(ctx, "Dune"); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Build Tags
//
// Pure Go build (default, or the purego tag) uses modernc.org/sqlite.
//
// CGO build uses github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo"
package storage
