package permcache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the age after which CleanupExpired removes an entry.
const DefaultTTL = 24 * time.Hour

// Entry is a persisted mirror of a server-confirmed permission set.
type Entry struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Permissions []string  `json:"permissions"`
	Version     int64     `json:"version"`
	ETag        string    `json:"etag,omitempty"`
	WrittenAt   time.Time `json:"written_at"`
}

// Expired reports whether the entry is older than ttl at the given time.
func (e *Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.WrittenAt) > ttl
}

// Store persists permission cache entries namespaced by tenant id.
//
// Write must only be called with server-confirmed permission sets.
// Read intentionally ignores the TTL so callers can paint stale data while a
// confirmation request is in flight.
type Store interface {
	// Read returns the cached entry for the tenant, regardless of its age.
	// Returns ErrNotFound if no entry exists or the stored entry is corrupt.
	Read(ctx context.Context, tenantID uuid.UUID) (*Entry, error)

	// Write stores a server-confirmed entry, replacing any previous one.
	Write(ctx context.Context, entry Entry) error

	// Delete removes the entry for the tenant. Missing entries are not an error.
	Delete(ctx context.Context, tenantID uuid.UUID) error

	// CleanupExpired removes entries older than the TTL and entries that
	// fail to parse. Intended to run once per session start.
	CleanupExpired(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
