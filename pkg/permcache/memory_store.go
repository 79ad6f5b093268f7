package permcache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps entries in memory. Entries do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
	cfg     config
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries: make(map[uuid.UUID]Entry),
		cfg:     applyOptions(opts),
	}
}

// Read returns the cached entry for the tenant, regardless of its age.
func (s *MemoryStore) Read(ctx context.Context, tenantID uuid.UUID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Write stores a server-confirmed entry.
func (s *MemoryStore) Write(ctx context.Context, entry Entry) error {
	if entry.WrittenAt.IsZero() {
		entry.WrittenAt = s.cfg.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TenantID] = entry
	return nil
}

// Delete removes the entry for the tenant.
func (s *MemoryStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tenantID)
	return nil
}

// CleanupExpired removes entries older than the TTL.
func (s *MemoryStore) CleanupExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.now()
	for id, entry := range s.entries {
		if entry.Expired(now, s.cfg.ttl) {
			delete(s.entries, id)
		}
	}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
