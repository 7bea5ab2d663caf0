package types

import "time"

// DefaultCollectionEmoji is stored when a collection is created without an emoji.
const DefaultCollectionEmoji = "📌"

// Collection is a named, user-defined group of highlights.
type Collection struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}
