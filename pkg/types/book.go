package types

import "time"

// Book is the catalog entry for one stored e-book plus its reading state.
type Book struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Filename       string    `json:"filename"`
	LastCFI        string    `json:"last_cfi"`
	Cover          *string   `json:"cover"`
	LocationsData  *string   `json:"locations_data"`
	LastPercentage float64   `json:"last_percentage"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewBook carries the caller-supplied fields of an add request.
type NewBook struct {
	Title    string
	Filename string
	Cover    *string
}
