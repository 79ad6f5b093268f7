// Package permcache persists per-tenant permission snapshots for optimistic
// paint on tenant switch and process restart.
//
// The cache is best-effort only: it is never a source of truth for access
// decisions. Entries are written exclusively after a server-confirmed
// response, and readers are expected to combine a cached entry with the sync
// engine's confirmation state before acting on it.
//
// Three stores are provided:
//
//   - FileStore persists one JSON file per tenant under a data directory.
//     This is the default for single-process clients.
//   - MemoryStore keeps entries in memory. Useful for tests and for clients
//     that do not want persistence across restarts.
//   - RedisStore stores entries in Redis with a native TTL, for agents that
//     share authorization state across processes.
//
// Read returns an entry regardless of its age so callers can paint stale
// data immediately; CleanupExpired is expected to run once per session start
// and removes entries older than the TTL as well as entries that fail to
// parse. Corruption is non-fatal and discarded silently.
//
// # Usage
//
//	store, err := permcache.NewFileStore(dataDir)
//	if err != nil {
//	    // handle error
//	}
//	defer store.Close()
//
//	_ = store.CleanupExpired(ctx)
//
//	if entry, err := store.Read(ctx, tenantID); err == nil {
//	    // optimistic paint, pending confirmation
//	}
package permcache
