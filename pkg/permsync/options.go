package permsync

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sentinelhq/authsync/pkg/permcache"
)

// DefaultPollInterval is the fixed poll interval when none is configured.
const DefaultPollInterval = 2 * time.Minute

// DefaultTenantHeader carries the tenant id on sync requests.
const DefaultTenantHeader = "X-Tenant-ID"

// Option configures the engine.
type Option func(*Engine)

// WithHTTPClient sets the HTTP client used for sync requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

// WithCache sets the permission cache used for optimistic paint and for
// persisting confirmed sets. Without a cache the engine still works; tenant
// switches just start from an empty, unconfirmed snapshot.
func WithCache(cache permcache.Store) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithLogger sets the logger used for sync diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(e *Engine) {
		if interval > 0 {
			e.pollInterval = interval
		}
	}
}

// WithTenantHeader overrides the header carrying the tenant id.
func WithTenantHeader(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.tenantHeader = name
		}
	}
}
