// Package library is the single entry point for reading-library operations.
//
// It owns the SQLite store and the content directory and serializes all
// database work behind one mutex. Composite operations (DeleteBook and
// WipeAll) hold the mutex for their entire sequence and report partial
// failure through types.ErrPartialFailure instead of rolling back.
package library
