package storage

import (
	"context"
	"fmt"

	"github.com/dshills/shelf-mcp/pkg/types"
)

const collectionColumns = `id, name, emoji, created_at`

func scanCollection(row rowScanner) (*types.Collection, error) {
	var c types.Collection
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Emoji, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCollections(ctx context.Context, q querier, query string, args ...interface{}) ([]*types.Collection, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	collections := make([]*types.Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// Collection operations

// insertCollectionWithQuerier is the internal implementation that uses a querier.
// A duplicate name surfaces as types.ErrConstraint.
func (s *SQLiteStorage) insertCollectionWithQuerier(ctx context.Context, q querier, c *types.Collection) error {
	if c.Emoji == "" {
		c.Emoji = types.DefaultCollectionEmoji
	}
	query := `INSERT INTO collections (name, emoji, created_at) VALUES (?, ?, ?)`
	ts, now := s.timestamp()
	result, err := q.ExecContext(ctx, query, c.Name, c.Emoji, ts)
	if err != nil {
		return classify(err, fmt.Sprintf("failed to create collection %q", c.Name))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertCollection(ctx context.Context, c *types.Collection) error {
	return s.insertCollectionWithQuerier(ctx, s.querier(), c)
}

// listCollectionsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listCollectionsWithQuerier(ctx context.Context, q querier) ([]*types.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections ORDER BY name ASC`
	return collectCollections(ctx, q, query)
}

func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]*types.Collection, error) {
	return s.listCollectionsWithQuerier(ctx, s.querier())
}

// deleteCollectionWithQuerier drops the collection's links before the row so
// the result does not depend on foreign key enforcement.
func (s *SQLiteStorage) deleteCollectionWithQuerier(ctx context.Context, q querier, id int64) (int64, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM highlight_collections WHERE collection_id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to unlink collection: %w", err)
	}
	n, err := rowsAffected(q.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete collection: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) DeleteCollection(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(q querier) error {
		var err error
		n, err = s.deleteCollectionWithQuerier(ctx, q, id)
		return err
	})
	return n, err
}

// linkHighlightWithQuerier is idempotent. Unknown ids are reported as
// types.ErrNotFound through the foreign keys.
func (s *SQLiteStorage) linkHighlightWithQuerier(ctx context.Context, q querier, highlightID, collectionID int64) error {
	query := `INSERT OR IGNORE INTO highlight_collections (highlight_id, collection_id) VALUES (?, ?)`
	if _, err := q.ExecContext(ctx, query, highlightID, collectionID); err != nil {
		return classify(err, fmt.Sprintf("failed to link highlight %d to collection %d", highlightID, collectionID))
	}
	return nil
}

func (s *SQLiteStorage) LinkHighlight(ctx context.Context, highlightID, collectionID int64) error {
	return s.linkHighlightWithQuerier(ctx, s.querier(), highlightID, collectionID)
}

// unlinkHighlightWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) unlinkHighlightWithQuerier(ctx context.Context, q querier, highlightID, collectionID int64) (int64, error) {
	query := `DELETE FROM highlight_collections WHERE highlight_id = ? AND collection_id = ?`
	n, err := rowsAffected(q.ExecContext(ctx, query, highlightID, collectionID))
	if err != nil {
		return 0, fmt.Errorf("failed to unlink highlight: %w", err)
	}
	return n, nil
}

func (s *SQLiteStorage) UnlinkHighlight(ctx context.Context, highlightID, collectionID int64) (int64, error) {
	return s.unlinkHighlightWithQuerier(ctx, s.querier(), highlightID, collectionID)
}

// listHighlightsInCollectionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listHighlightsInCollectionWithQuerier(ctx context.Context, q querier, collectionID int64) ([]*types.Highlight, error) {
	query := `
		SELECT h.id, h.book_title, h.cfi, h.text, h.color, h.notes, h.created_at
		FROM highlights h
		INNER JOIN highlight_collections hc ON hc.highlight_id = h.id
		WHERE hc.collection_id = ?
		ORDER BY h.created_at DESC, h.id DESC
	`
	return collectHighlights(ctx, q, query, collectionID)
}

func (s *SQLiteStorage) ListHighlightsInCollection(ctx context.Context, collectionID int64) ([]*types.Highlight, error) {
	return s.listHighlightsInCollectionWithQuerier(ctx, s.querier(), collectionID)
}

// listCollectionsOfHighlightWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listCollectionsOfHighlightWithQuerier(ctx context.Context, q querier, highlightID int64) ([]*types.Collection, error) {
	query := `
		SELECT c.id, c.name, c.emoji, c.created_at
		FROM collections c
		INNER JOIN highlight_collections hc ON hc.collection_id = c.id
		WHERE hc.highlight_id = ?
		ORDER BY c.name ASC
	`
	return collectCollections(ctx, q, query, highlightID)
}

func (s *SQLiteStorage) ListCollectionsOfHighlight(ctx context.Context, highlightID int64) ([]*types.Collection, error) {
	return s.listCollectionsOfHighlightWithQuerier(ctx, s.querier(), highlightID)
}
