package types

import "errors"

// Domain errors shared by the storage, content and library packages.
var (
	// ErrNotFound is returned when a title, id or content file is absent.
	ErrNotFound = errors.New("not found")
	// ErrConstraint is returned when a uniqueness constraint rejects a write.
	ErrConstraint = errors.New("constraint violation")
	// ErrPartialFailure is returned when a composite operation committed its
	// database changes but could not finish the filesystem step.
	ErrPartialFailure = errors.New("partially applied")
	// ErrInvalidArgument is returned when a required input is empty or out of range.
	ErrInvalidArgument = errors.New("invalid argument")
)
