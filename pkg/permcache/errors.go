package permcache

import "errors"

var (
	// ErrNotFound is returned when no cache entry exists for the tenant.
	ErrNotFound = errors.New("permcache: entry not found")

	// ErrInvalidDir is returned when the file store directory cannot be used.
	ErrInvalidDir = errors.New("permcache: invalid cache directory")
)
