package tenant

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileSelectionStore persists the selected tenant id in a small file under
// the client data directory, the client-process analog of the browser's
// tenant-selection cookie.
type FileSelectionStore struct {
	path string
}

// NewFileSelectionStore stores the selection at dir/tenant-selection.
func NewFileSelectionStore(dir string) (*FileSelectionStore, error) {
	if dir == "" {
		return nil, errors.New("tenant: selection store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("tenant: create selection store dir: %w", err)
	}
	return &FileSelectionStore{path: filepath.Join(dir, "tenant-selection")}, nil
}

// Load returns the persisted selection, or ErrNoSelection. A file that does
// not parse as a UUID is treated as absent and removed.
func (s *FileSelectionStore) Load(ctx context.Context) (uuid.UUID, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return uuid.Nil, ErrNoSelection
		}
		return uuid.Nil, fmt.Errorf("tenant: read selection: %w", err)
	}

	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		_ = os.Remove(s.path)
		return uuid.Nil, ErrNoSelection
	}
	return id, nil
}

// Save persists the selection.
func (s *FileSelectionStore) Save(ctx context.Context, id uuid.UUID) error {
	if err := os.WriteFile(s.path, []byte(id.String()), 0o600); err != nil {
		return fmt.Errorf("tenant: write selection: %w", err)
	}
	return nil
}

// Clear removes the selection.
func (s *FileSelectionStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tenant: clear selection: %w", err)
	}
	return nil
}

// FileCredentialStore clears a file-persisted session credential. It shares
// nothing with the selection store so session expiry can drop the
// credential without losing the team selection.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore clears the credential at dir/session-credential.
func NewFileCredentialStore(dir string) (*FileCredentialStore, error) {
	if dir == "" {
		return nil, errors.New("tenant: credential store directory is required")
	}
	return &FileCredentialStore{path: filepath.Join(dir, "session-credential")}, nil
}

// Clear removes the persisted credential.
func (s *FileCredentialStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tenant: clear credential: %w", err)
	}
	return nil
}
