package storage

import (
	"fmt"
	"strings"

	"github.com/dshills/shelf-mcp/pkg/types"
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

// classify maps SQLite constraint failures onto the shared error taxonomy.
// Anything else is returned wrapped with op and otherwise untouched.
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, types.ErrConstraint, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %v", op, types.ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
