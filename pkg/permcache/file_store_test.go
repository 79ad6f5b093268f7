package permcache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelhq/authsync/pkg/permcache"
)

func TestFileStore_ReadWrite(t *testing.T) {
	t.Parallel()

	store, err := permcache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	tenantID := uuid.New()

	_, err = store.Read(ctx, tenantID)
	require.ErrorIs(t, err, permcache.ErrNotFound)

	entry := permcache.Entry{
		TenantID:    tenantID,
		Permissions: []string{"findings:read", "assets:write"},
		Version:     3,
		ETag:        `"v3"`,
	}
	require.NoError(t, store.Write(ctx, entry))

	got, err := store.Read(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got.TenantID)
	assert.Equal(t, []string{"findings:read", "assets:write"}, got.Permissions)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, `"v3"`, got.ETag)
	assert.False(t, got.WrittenAt.IsZero())
}

func TestFileStore_ReadIgnoresTTL(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store, err := permcache.NewFileStore(t.TempDir(),
		permcache.WithTTL(time.Hour),
		permcache.WithNowFunc(func() time.Time { return now }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()
	require.NoError(t, store.Write(ctx, permcache.Entry{
		TenantID:  tenantID,
		Version:   1,
		WrittenAt: now.Add(-48 * time.Hour),
	}))

	// Expired entries are still readable until cleanup runs: the caller
	// needs them for optimistic paint.
	got, err := store.Read(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestFileStore_CleanupExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store, err := permcache.NewFileStore(t.TempDir(),
		permcache.WithTTL(24*time.Hour),
		permcache.WithNowFunc(func() time.Time { return now }),
	)
	require.NoError(t, err)

	ctx := context.Background()
	fresh := uuid.New()
	expired := uuid.New()

	require.NoError(t, store.Write(ctx, permcache.Entry{
		TenantID:  fresh,
		Version:   2,
		WrittenAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.Write(ctx, permcache.Entry{
		TenantID:  expired,
		Version:   1,
		WrittenAt: now.Add(-25 * time.Hour),
	}))

	require.NoError(t, store.CleanupExpired(ctx))

	_, err = store.Read(ctx, expired)
	assert.ErrorIs(t, err, permcache.ErrNotFound)

	got, err := store.Read(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestFileStore_CorruptEntryDiscarded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := permcache.NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()

	path := filepath.Join(dir, tenantID.String()+".perms.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err = store.Read(ctx, tenantID)
	assert.ErrorIs(t, err, permcache.ErrNotFound)

	// The corrupt file is removed on read.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_CleanupRemovesCorruptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := permcache.NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, uuid.New().String()+".perms.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	require.NoError(t, store.CleanupExpired(context.Background()))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_Delete(t *testing.T) {
	t.Parallel()

	store, err := permcache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()

	// Deleting a missing entry is not an error.
	require.NoError(t, store.Delete(ctx, tenantID))

	require.NoError(t, store.Write(ctx, permcache.Entry{TenantID: tenantID, Version: 1}))
	require.NoError(t, store.Delete(ctx, tenantID))

	_, err = store.Read(ctx, tenantID)
	assert.ErrorIs(t, err, permcache.ErrNotFound)
}

func TestNewFileStore_InvalidDir(t *testing.T) {
	t.Parallel()

	_, err := permcache.NewFileStore("")
	assert.ErrorIs(t, err, permcache.ErrInvalidDir)
}
