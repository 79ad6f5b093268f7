package jobpoller

import (
	"log/slog"
	"time"
)

const (
	// DefaultBaseInterval is the first delay between status polls.
	DefaultBaseInterval = 2 * time.Second
	// DefaultFactor is the multiplicative growth applied after each poll.
	DefaultFactor = 1.5
	// DefaultMaxInterval caps the poll interval.
	DefaultMaxInterval = 10 * time.Second
)

// Option customizes a Poller.
type Option func(*Poller)

// WithBaseInterval sets the initial poll interval. Values <= 0 keep the default.
func WithBaseInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.base = d
		}
	}
}

// WithFactor sets the interval growth factor. Values < 1 keep the default.
func WithFactor(f float64) Option {
	return func(p *Poller) {
		if f >= 1 {
			p.factor = f
		}
	}
}

// WithMaxInterval caps the poll interval. Values <= 0 keep the default.
func WithMaxInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.maxInterval = d
		}
	}
}

// WithLogger sets the logger used for poll lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// WithOnCompleted registers the callback fired exactly once when a job
// reaches the completed status.
func WithOnCompleted(fn func(Job)) Option {
	return func(p *Poller) { p.onCompleted = fn }
}

// WithOnFailed registers the callback fired exactly once when a job
// reaches the failed status.
func WithOnFailed(fn func(Job)) Option {
	return func(p *Poller) { p.onFailed = fn }
}
