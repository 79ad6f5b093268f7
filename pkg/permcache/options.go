package permcache

import "time"

type config struct {
	ttl time.Duration
	now func() time.Time
}

// Option configures a store.
type Option func(*config)

// WithTTL overrides the default entry TTL used by CleanupExpired.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNowFunc injects a clock, primarily for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := config{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
