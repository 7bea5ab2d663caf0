package types

// DeleteStatus reports how far a book deletion got.
type DeleteStatus string

const (
	// DeleteApplied means the catalog row, its highlights and the content
	// file are all gone.
	DeleteApplied DeleteStatus = "applied"
	// DeleteFileOrphaned means the database changes committed but the
	// content file could not be removed.
	DeleteFileOrphaned DeleteStatus = "file_orphaned"
)

// DeleteResult is the outcome of deleting a book.
type DeleteResult struct {
	Title             string       `json:"title"`
	Filename          string       `json:"filename"`
	Status            DeleteStatus `json:"status"`
	HighlightsDeleted int64        `json:"highlights_deleted"`
}

// WipeResult is the outcome of wiping the whole library.
type WipeResult struct {
	HighlightsDeleted int64 `json:"highlights_deleted"`
	BooksDeleted      int64 `json:"books_deleted"`
	BookmarksDeleted  int64 `json:"bookmarks_deleted"`
	ContentWiped      bool  `json:"content_wiped"`
}

// Stats holds row counts for each table in the library. ContentFiles is
// the number of files in the content directory; it differs from Books when
// a file was orphaned.
type Stats struct {
	Books        int `json:"books"`
	Highlights   int `json:"highlights"`
	Bookmarks    int `json:"bookmarks"`
	Collections  int `json:"collections"`
	ContentFiles int `json:"content_files"`
}
