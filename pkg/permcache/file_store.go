package permcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const fileSuffix = ".perms.json"

// FileStore persists one JSON file per tenant under a directory.
type FileStore struct {
	dir string
	cfg config
}

// NewFileStore creates a file-backed store rooted at dir.
// The directory is created if it does not exist.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, ErrInvalidDir
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Join(ErrInvalidDir, err)
	}
	return &FileStore{dir: dir, cfg: applyOptions(opts)}, nil
}

func (s *FileStore) path(tenantID uuid.UUID) string {
	return filepath.Join(s.dir, tenantID.String()+fileSuffix)
}

// Read returns the cached entry for the tenant, regardless of its age.
// A file that fails to parse is discarded and reported as ErrNotFound.
func (s *FileStore) Read(ctx context.Context, tenantID uuid.UUID) (*Entry, error) {
	data, err := os.ReadFile(s.path(tenantID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("permcache: read entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.TenantID != tenantID {
		// Corruption is non-fatal: discard and report a miss.
		_ = os.Remove(s.path(tenantID))
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Write stores a server-confirmed entry, stamping it with the current time
// when WrittenAt is unset.
func (s *FileStore) Write(ctx context.Context, entry Entry) error {
	if entry.WrittenAt.IsZero() {
		entry.WrittenAt = s.cfg.now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("permcache: marshal entry: %w", err)
	}

	// Write-then-rename keeps a crash from leaving a half-written entry.
	tmp := s.path(entry.TenantID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("permcache: write entry: %w", err)
	}
	if err := os.Rename(tmp, s.path(entry.TenantID)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("permcache: write entry: %w", err)
	}
	return nil
}

// Delete removes the entry for the tenant.
func (s *FileStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	if err := os.Remove(s.path(tenantID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("permcache: delete entry: %w", err)
	}
	return nil
}

// CleanupExpired removes entries older than the TTL and files that fail to parse.
func (s *FileStore) CleanupExpired(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("permcache: cleanup: %w", err)
	}

	now := s.cfg.now()
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileSuffix) {
			continue
		}
		path := filepath.Join(s.dir, de.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			_ = os.Remove(path)
			continue
		}
		if entry.Expired(now, s.cfg.ttl) {
			_ = os.Remove(path)
		}
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
