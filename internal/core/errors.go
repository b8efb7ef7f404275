package core

import "errors"

var (
	// ErrTableNotFound is returned for a catalog key that is not registered.
	ErrTableNotFound = errors.New("table not found")

	// ErrSessionNotFound is returned for an unknown or expired scan id.
	ErrSessionNotFound = errors.New("scan session not found")

	// ErrNoDatabase is returned by loads when no database is configured.
	ErrNoDatabase = errors.New("no database configured")

	// ErrNotLoadable is returned by loads of a table without target_table.
	ErrNotLoadable = errors.New("table has no target table")

	// ErrTargetMismatch is returned when the target table does not have a
	// compatible column for every catalog column.
	ErrTargetMismatch = errors.New("target table does not match catalog columns")
)
