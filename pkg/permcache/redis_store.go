package permcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authsync:perms:"

var (
	// ErrFailedToParseRedisConnString is returned when the Redis URL is invalid.
	ErrFailedToParseRedisConnString = errors.New("permcache: failed to parse redis connection string")

	// ErrRedisNotReady is returned when the Redis server cannot be reached.
	ErrRedisNotReady = errors.New("permcache: redis is not ready")
)

// RedisConfig describes the Redis connection used by the shared cache.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// ConnectRedis establishes a connection to a Redis server, retrying up to
// cfg.RetryAttempts times with cfg.RetryInterval between attempts.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	for i := 0; i < cfg.RetryAttempts; i++ {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisStore persists entries in Redis with a native TTL. Intended for
// agents that share authorization state across processes on one host.
type RedisStore struct {
	client *redis.Client
	cfg    config
}

// NewRedisStore creates a Redis-backed store using the given client.
// The store does not take ownership of the client.
func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, cfg: applyOptions(opts)}
}

func redisKey(tenantID uuid.UUID) string {
	return redisKeyPrefix + tenantID.String()
}

// Read returns the cached entry for the tenant. An entry that fails to
// parse is discarded and reported as ErrNotFound.
func (s *RedisStore) Read(ctx context.Context, tenantID uuid.UUID) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKey(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("permcache: read entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.TenantID != tenantID {
		_ = s.client.Del(ctx, redisKey(tenantID)).Err()
		return nil, ErrNotFound
	}
	return &entry, nil
}

// Write stores a server-confirmed entry with the configured TTL.
func (s *RedisStore) Write(ctx context.Context, entry Entry) error {
	if entry.WrittenAt.IsZero() {
		entry.WrittenAt = s.cfg.now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("permcache: marshal entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(entry.TenantID), data, s.cfg.ttl).Err(); err != nil {
		return fmt.Errorf("permcache: write entry: %w", err)
	}
	return nil
}

// Delete removes the entry for the tenant.
func (s *RedisStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	if err := s.client.Del(ctx, redisKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("permcache: delete entry: %w", err)
	}
	return nil
}

// CleanupExpired is a no-op: Redis expires entries natively via the key TTL.
func (s *RedisStore) CleanupExpired(ctx context.Context) error { return nil }

// Close is a no-op; the caller owns the Redis client.
func (s *RedisStore) Close() error { return nil }
