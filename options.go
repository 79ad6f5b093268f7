package authsync

import (
	"log/slog"
	"net/http"

	"github.com/sentinelhq/authsync/pkg/permcache"
	"github.com/sentinelhq/authsync/pkg/permsync"
	"github.com/sentinelhq/authsync/pkg/realtime"
)

// Option customizes a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	log          *slog.Logger
	client       *http.Client
	cache        permcache.Store
	engineOpts   []permsync.Option
	realtimeOpts []realtime.Option
}

// WithLogger sets the logger shared by all session components.
func WithLogger(log *slog.Logger) Option {
	return func(c *sessionConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient sets the HTTP client used for all API calls. The client's
// cookie jar carries the session credential.
func WithHTTPClient(client *http.Client) Option {
	return func(c *sessionConfig) {
		if client != nil {
			c.client = client
		}
	}
}

// WithCacheStore replaces the default file-backed permission cache.
func WithCacheStore(store permcache.Store) Option {
	return func(c *sessionConfig) {
		if store != nil {
			c.cache = store
		}
	}
}

// WithEngineOptions appends options for the permission sync engine.
func WithEngineOptions(opts ...permsync.Option) Option {
	return func(c *sessionConfig) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithRealtimeOptions appends options for the realtime connection manager.
func WithRealtimeOptions(opts ...realtime.Option) Option {
	return func(c *sessionConfig) {
		c.realtimeOpts = append(c.realtimeOpts, opts...)
	}
}
