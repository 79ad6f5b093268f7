package permcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelhq/authsync/pkg/permcache"
)

func TestMemoryStore_ReadWrite(t *testing.T) {
	t.Parallel()

	store := permcache.NewMemoryStore()
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := store.Read(ctx, tenantID)
	require.ErrorIs(t, err, permcache.ErrNotFound)

	require.NoError(t, store.Write(ctx, permcache.Entry{
		TenantID:    tenantID,
		Permissions: []string{"findings:read"},
		Version:     1,
	}))

	got, err := store.Read(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"findings:read"}, got.Permissions)
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := permcache.NewMemoryStore(
		permcache.WithTTL(time.Hour),
		permcache.WithNowFunc(func() time.Time { return now }),
	)
	ctx := context.Background()

	fresh := uuid.New()
	expired := uuid.New()
	require.NoError(t, store.Write(ctx, permcache.Entry{TenantID: fresh, WrittenAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Write(ctx, permcache.Entry{TenantID: expired, WrittenAt: now.Add(-2 * time.Hour)}))

	require.NoError(t, store.CleanupExpired(ctx))

	_, err := store.Read(ctx, expired)
	assert.ErrorIs(t, err, permcache.ErrNotFound)
	_, err = store.Read(ctx, fresh)
	assert.NoError(t, err)
}

func TestMemoryStore_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := permcache.NewMemoryStore()
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, store.Write(ctx, permcache.Entry{TenantID: tenantID, Version: 5}))

	got, err := store.Read(ctx, tenantID)
	require.NoError(t, err)
	got.Version = 99

	again, err := store.Read(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.Version)
}
