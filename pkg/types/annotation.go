package types

import "time"

// DefaultHighlightColor is stored when a highlight is created without a color.
const DefaultHighlightColor = "#facc15"

// Highlight is a captured excerpt of a book.
type Highlight struct {
	ID        int64     `json:"id"`
	BookTitle string    `json:"book_title"`
	CFI       string    `json:"cfi"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark is a saved position in a book.
type Bookmark struct {
	ID        int64     `json:"id"`
	BookTitle string    `json:"book_title"`
	CFI       string    `json:"cfi"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
