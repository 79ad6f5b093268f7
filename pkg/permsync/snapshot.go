package permsync

import (
	"slices"

	"github.com/google/uuid"
)

// Snapshot is the engine's view of the active tenant's permission set at a
// point in time.
//
// Confirmed distinguishes server-confirmed state from an optimistic paint
// out of the cache; Loading reports whether a fetch is currently in flight.
// A snapshot can be both populated and unconfirmed right after a tenant
// switch: cached permissions are shown for UI speed while the confirming
// request runs.
type Snapshot struct {
	TenantID    uuid.UUID
	Permissions []string
	Version     int64
	ETag        string

	// Confirmed is true once the held set came from a server response
	// rather than the local cache.
	Confirmed bool

	// Stale is set when an out-of-band signal indicated the held set may
	// no longer match the server. Cleared by the next confirmed fetch.
	Stale bool

	// Loading reports an in-flight fetch.
	Loading bool

	// Err holds the last fetch failure. The permission set is still the
	// last known-good one; the engine retries on the next trigger.
	Err error
}

// Has reports whether the snapshot contains the given permission string.
// It says nothing about confirmation: combine with Confirmed when gating
// anything sensitive.
func (s Snapshot) Has(permission string) bool {
	return slices.Contains(s.Permissions, permission)
}
