package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/shelf-mcp/internal/content"
	"github.com/dshills/shelf-mcp/internal/storage"
	"github.com/dshills/shelf-mcp/pkg/types"
)

var epubBytes = []byte("PK\x03\x04\x14\x00\x00\x00\x00\x00mimetypeapplication/epub+zip")

func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func setupLibrary(t *testing.T) (*Library, string) {
	root := t.TempDir()
	booksDir := filepath.Join(root, "books")
	lib, err := Open(filepath.Join(root, "data", "highlights.db"), booksDir, nil, storage.WithClock(steppingClock()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib, booksDir
}

func TestOpen_CreatesStorageLocation(t *testing.T) {
	_, booksDir := setupLibrary(t)
	assert.DirExists(t, booksDir)
	assert.FileExists(t, filepath.Join(filepath.Dir(booksDir), "data", "highlights.db"))
}

func TestAddBook_Idempotent(t *testing.T) {
	lib, booksDir := setupLibrary(t)
	ctx := context.Background()

	cover := "cover-a"
	first, err := lib.AddBook(ctx, "Dune", "Dune.epub", &cover, epubBytes)
	require.NoError(t, err)

	otherCover := "cover-b"
	second, err := lib.AddBook(ctx, "Dune", "Other.epub", &otherCover, []byte("new content"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dune.epub", second.Filename)
	require.NotNil(t, second.Cover)
	assert.Equal(t, "cover-a", *second.Cover)

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	// The second call still writes its file.
	assert.FileExists(t, filepath.Join(booksDir, "Other.epub"))
}

func TestAddBook_RewritesContent(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, []byte("v1"))
	require.NoError(t, err)
	_, err = lib.AddBook(ctx, "Dune", "Dune.epub", nil, []byte("v2"))
	require.NoError(t, err)

	data, err := lib.GetContent(ctx, "Dune.epub")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestAddBook_InvalidArguments(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "", "Dune.epub", nil, epubBytes)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = lib.AddBook(ctx, "Dune", "", nil, epubBytes)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestListBooks_Ordering(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	for _, title := range []string{"First", "Second", "Third"} {
		_, err := lib.AddBook(ctx, title, title+".epub", nil, epubBytes)
		require.NoError(t, err)
	}

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Third", books[0].Title)
	assert.Equal(t, "Second", books[1].Title)
	assert.Equal(t, "First", books[2].Title)
}

func TestUpdateProgress_UnknownTitleIsNoOp(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)

	n, err := lib.UpdateProgress(ctx, "nonexistent", "cfi", 0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "", books[0].LastCFI)
	assert.Equal(t, 0.0, books[0].LastPercentage)
}

func TestUpdateProgressAndLocations(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)

	n, err := lib.UpdateProgress(ctx, "Dune", "epubcfi(/6/8)", 0.25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = lib.UpdateLocations(ctx, "Dune", "[1,2,3]")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "epubcfi(/6/8)", books[0].LastCFI)
	assert.InDelta(t, 0.25, books[0].LastPercentage, 1e-9)
	require.NotNil(t, books[0].LocationsData)
	assert.Equal(t, "[1,2,3]", *books[0].LocationsData)
}

func TestGetContent_MissingFile(t *testing.T) {
	lib, booksDir := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(booksDir, "Dune.epub")))

	_, err = lib.GetContent(ctx, "Dune.epub")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHighlights(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	h, err := lib.AddHighlight(ctx, "Dune", "epubcfi(/6/4)", "fear", "", "")
	require.NoError(t, err)
	assert.Greater(t, h.ID, int64(0))
	assert.Equal(t, types.DefaultHighlightColor, h.Color)
	assert.False(t, h.CreatedAt.IsZero())

	n, err := lib.UpdateHighlightNotes(ctx, h.ID, "mind-killer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = lib.UpdateHighlightNotes(ctx, 9999, "nothing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	list, err := lib.ListHighlights(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mind-killer", list[0].Notes)

	n, err = lib.DeleteHighlight(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = lib.DeleteHighlight(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = lib.DeleteHighlight(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestBookmarks(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	b, err := lib.AddBookmark(ctx, "Dune", "epubcfi(/6/10)", "Chapter 3")
	require.NoError(t, err)
	assert.Greater(t, b.ID, int64(0))

	list, err := lib.ListBookmarks(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Chapter 3", list[0].Label)

	n, err := lib.DeleteBookmark(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = lib.DeleteBookmark(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDeleteBook_Cascade(t *testing.T) {
	lib, booksDir := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "T", "T.epub", nil, epubBytes)
	require.NoError(t, err)
	var ids []int64
	for i := 0; i < 3; i++ {
		h, err := lib.AddHighlight(ctx, "T", fmt.Sprintf("cfi-%d", i), "text", "", "")
		require.NoError(t, err)
		ids = append(ids, h.ID)
	}
	c, err := lib.CreateCollection(ctx, "Quotes", "")
	require.NoError(t, err)
	require.NoError(t, lib.LinkHighlightToCollection(ctx, ids[0], c.ID))
	_, err = lib.AddBookmark(ctx, "T", "cfi-b", "kept")
	require.NoError(t, err)

	result, err := lib.DeleteBook(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, types.DeleteApplied, result.Status)
	assert.Equal(t, "T.epub", result.Filename)
	assert.Equal(t, int64(3), result.HighlightsDeleted)

	highlights, err := lib.ListHighlights(ctx, "T")
	require.NoError(t, err)
	assert.Empty(t, highlights)

	_, err = lib.GetContent(ctx, "T.epub")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoFileExists(t, filepath.Join(booksDir, "T.epub"))

	in, err := lib.HighlightsInCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, in)

	// Bookmarks are not part of the cascade.
	bookmarks, err := lib.ListBookmarks(ctx, "T")
	require.NoError(t, err)
	assert.Len(t, bookmarks, 1)
}

func TestDeleteBook_UnknownTitle(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddHighlight(ctx, "Ghost", "c", "t", "", "")
	require.NoError(t, err)

	_, err = lib.DeleteBook(ctx, "Ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Nothing was deleted.
	highlights, err := lib.ListHighlights(ctx, "Ghost")
	require.NoError(t, err)
	assert.Len(t, highlights, 1)
}

func TestDeleteBook_FileAlreadyAbsent(t *testing.T) {
	lib, booksDir := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(booksDir, "Dune.epub")))

	result, err := lib.DeleteBook(ctx, "Dune")
	require.NoError(t, err)
	assert.Equal(t, types.DeleteApplied, result.Status)
}

// failingContent removes nothing and reports an error on Delete and Wipe.
type failingContent struct {
	*content.Store
}

var errDiskGone = errors.New("disk gone")

func (f failingContent) Delete(string) error { return errDiskGone }
func (f failingContent) Wipe() error         { return errDiskGone }

func setupFailingLibrary(t *testing.T) *Library {
	root := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(root, "highlights.db"))
	require.NoError(t, err)
	cs, err := content.NewStore(filepath.Join(root, "books"))
	require.NoError(t, err)
	lib := New(store, failingContent{cs}, nil)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestDeleteBook_FileOrphaned(t *testing.T) {
	lib := setupFailingLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)
	_, err = lib.AddHighlight(ctx, "Dune", "c", "t", "", "")
	require.NoError(t, err)

	result, err := lib.DeleteBook(ctx, "Dune")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPartialFailure)
	assert.ErrorIs(t, err, errDiskGone)
	assert.Equal(t, types.DeleteFileOrphaned, result.Status)
	assert.Equal(t, "Dune.epub", result.Filename)

	// Database changes stay committed.
	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	highlights, err := lib.ListAllHighlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, highlights)

	// The orphan is still on disk and visible in the stats.
	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Books)
	assert.Equal(t, 1, stats.ContentFiles)
}

func TestWipeAll(t *testing.T) {
	lib, booksDir := setupLibrary(t)
	ctx := context.Background()

	for _, title := range []string{"A", "B"} {
		_, err := lib.AddBook(ctx, title, title+".epub", nil, epubBytes)
		require.NoError(t, err)
		_, err = lib.AddHighlight(ctx, title, "c", "t", "", "")
		require.NoError(t, err)
		_, err = lib.AddBookmark(ctx, title, "c", "l")
		require.NoError(t, err)
	}
	h, err := lib.AddHighlight(ctx, "A", "c2", "linked", "", "")
	require.NoError(t, err)
	c, err := lib.CreateCollection(ctx, "Quotes", "")
	require.NoError(t, err)
	require.NoError(t, lib.LinkHighlightToCollection(ctx, h.ID, c.ID))

	result, err := lib.WipeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.BooksDeleted)
	assert.Equal(t, int64(3), result.HighlightsDeleted)
	assert.Equal(t, int64(2), result.BookmarksDeleted)
	assert.True(t, result.ContentWiped)

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
	highlights, err := lib.ListAllHighlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, highlights)
	for _, title := range []string{"A", "B"} {
		bookmarks, err := lib.ListBookmarks(ctx, title)
		require.NoError(t, err)
		assert.Empty(t, bookmarks)
	}

	entries, err := os.ReadDir(booksDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, os.WriteFile(filepath.Join(booksDir, "probe"), []byte("x"), 0o644))

	// Collections survive a wipe; their links to wiped highlights do not.
	collections, err := lib.ListCollections(ctx)
	require.NoError(t, err)
	assert.Len(t, collections, 1)
	in, err := lib.HighlightsInCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestWipeAll_ContentFailure(t *testing.T) {
	lib := setupFailingLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)

	result, err := lib.WipeAll(ctx)
	assert.ErrorIs(t, err, types.ErrPartialFailure)
	assert.False(t, result.ContentWiped)
	assert.Equal(t, int64(1), result.BooksDeleted)

	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCollections(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	fav, err := lib.CreateCollection(ctx, "Favorites", "⭐")
	require.NoError(t, err)
	assert.Equal(t, "⭐", fav.Emoji)

	_, err = lib.CreateCollection(ctx, "Favorites", "🔥")
	assert.ErrorIs(t, err, types.ErrConstraint)

	collections, err := lib.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "⭐", collections[0].Emoji)

	_, err = lib.CreateCollection(ctx, "", "⭐")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestListCollections_Ordering(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		_, err := lib.CreateCollection(ctx, name, "")
		require.NoError(t, err)
	}

	collections, err := lib.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 3)
	assert.Equal(t, "Alpha", collections[0].Name)
	assert.Equal(t, "Bravo", collections[1].Name)
	assert.Equal(t, "Charlie", collections[2].Name)
	assert.Equal(t, types.DefaultCollectionEmoji, collections[0].Emoji)
}

func TestLinkUnlink_Idempotent(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	h, err := lib.AddHighlight(ctx, "Dune", "c", "t", "", "")
	require.NoError(t, err)
	c, err := lib.CreateCollection(ctx, "Quotes", "")
	require.NoError(t, err)

	require.NoError(t, lib.LinkHighlightToCollection(ctx, h.ID, c.ID))
	require.NoError(t, lib.LinkHighlightToCollection(ctx, h.ID, c.ID))

	in, err := lib.HighlightsInCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, in, 1)

	of, err := lib.CollectionsOfHighlight(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, of, 1)
	assert.Equal(t, "Quotes", of[0].Name)

	n, err := lib.UnlinkHighlightFromCollection(ctx, h.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	in, err = lib.HighlightsInCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, in)

	n, err = lib.UnlinkHighlightFromCollection(ctx, h.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	err = lib.LinkHighlightToCollection(ctx, h.ID, 9999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteCollection(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	h, err := lib.AddHighlight(ctx, "Dune", "c", "t", "", "")
	require.NoError(t, err)
	c, err := lib.CreateCollection(ctx, "Quotes", "")
	require.NoError(t, err)
	require.NoError(t, lib.LinkHighlightToCollection(ctx, h.ID, c.ID))

	n, err := lib.DeleteCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	of, err := lib.CollectionsOfHighlight(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, of)

	n, err = lib.DeleteCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStats(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	_, err := lib.AddBook(ctx, "Dune", "Dune.epub", nil, epubBytes)
	require.NoError(t, err)
	_, err = lib.AddHighlight(ctx, "Dune", "c", "t", "", "")
	require.NoError(t, err)
	_, err = lib.CreateCollection(ctx, "Quotes", "")
	require.NoError(t, err)

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Stats{Books: 1, Highlights: 1, Collections: 1, ContentFiles: 1}, *stats)
}

func TestConcurrentCallers(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 10

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			title := fmt.Sprintf("Book %d", w)
			if _, err := lib.AddBook(gctx, title, fmt.Sprintf("book-%d.epub", w), nil, epubBytes); err != nil {
				return err
			}
			for i := 0; i < perWorker; i++ {
				if _, err := lib.AddHighlight(gctx, title, fmt.Sprintf("cfi-%d", i), "text", "", ""); err != nil {
					return err
				}
				if _, err := lib.UpdateProgress(gctx, title, fmt.Sprintf("cfi-%d", i), float64(i)/perWorker); err != nil {
					return err
				}
				if _, err := lib.ListAllHighlights(gctx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, stats.Books)
	assert.Equal(t, workers*perWorker, stats.Highlights)
}

func TestConcurrentDeleteAndRead(t *testing.T) {
	lib, _ := setupLibrary(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		title := fmt.Sprintf("Book %d", i)
		_, err := lib.AddBook(ctx, title, fmt.Sprintf("book-%d.epub", i), nil, epubBytes)
		require.NoError(t, err)
		_, err = lib.AddHighlight(ctx, title, "c", "t", "", "")
		require.NoError(t, err)
	}

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := lib.DeleteBook(ctx, fmt.Sprintf("Book %d", i))
			return err
		})
		g.Go(func() error {
			books, err := lib.ListBooks(ctx)
			if err != nil {
				return err
			}
			for _, b := range books {
				if _, err := lib.ListHighlights(ctx, b.Title); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Books)
	assert.Equal(t, 0, stats.Highlights)
	assert.Equal(t, 0, stats.ContentFiles)
}
