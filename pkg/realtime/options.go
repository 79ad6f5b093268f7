package realtime

import (
	"log/slog"
	"net/http"
)

// Option configures the manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for the token fetch. Its cookie jar,
// when present, also supplies cookies for same-origin handshakes.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithTokenEndpoint sets the URL that issues short-lived bearer tokens for
// cross-origin connections.
func WithTokenEndpoint(endpoint string) Option {
	return func(m *Manager) {
		m.tokenEndpoint = endpoint
	}
}

// WithBackoff overrides the reconnect policy.
func WithBackoff(b Backoff) Option {
	return func(m *Manager) {
		if b.Base > 0 && b.Factor >= 1 && b.MaxAttempts > 0 {
			m.backoff = b
		}
	}
}

// WithMessageHandler sets the callback invoked for every received message.
func WithMessageHandler(fn func([]byte)) Option {
	return func(m *Manager) {
		m.onMessage = fn
	}
}

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithDialFunc replaces the WebSocket dialer, primarily for tests.
func WithDialFunc(dial DialFunc) Option {
	return func(m *Manager) {
		if dial != nil {
			m.dial = dial
		}
	}
}
