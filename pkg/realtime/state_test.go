package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	// Connected is never reachable without passing through a connecting
	// flavored state.
	assert.False(t, StateDisconnected.canTransition(StateConnected))
	assert.False(t, StateFailed.canTransition(StateConnected))

	assert.True(t, StateDisconnected.canTransition(StateConnecting))
	assert.True(t, StateConnecting.canTransition(StateConnected))
	assert.True(t, StateConnected.canTransition(StateReconnecting))
	assert.True(t, StateReconnecting.canTransition(StateConnected))
	assert.True(t, StateReconnecting.canTransition(StateFailed))

	// Failed recovers only through an explicit reconnect.
	assert.True(t, StateFailed.canTransition(StateConnecting))
	assert.False(t, StateFailed.canTransition(StateReconnecting))

	// Teardown is always allowed.
	for _, s := range []State{StateConnecting, StateConnected, StateReconnecting, StateFailed} {
		assert.True(t, s.canTransition(StateDisconnected), s.String())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	b := Backoff{Base: 500 * time.Millisecond, Factor: 2, Cap: 3 * time.Second, MaxAttempts: 10}
	assert.Equal(t, 500*time.Millisecond, b.Delay(0))
	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 3*time.Second, b.Delay(3), "capped")
	assert.Equal(t, 3*time.Second, b.Delay(8), "stays capped")
}

func TestNormalizeOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ws maps to http", "ws://example.com/channel", "http://example.com"},
		{"wss maps to https", "wss://example.com/channel", "https://example.com"},
		{"default http port stripped", "ws://example.com:80/x", "http://example.com"},
		{"default https port stripped", "wss://example.com:443/x", "https://example.com"},
		{"custom port kept", "ws://example.com:9000/x", "http://example.com:9000"},
		{"plain origin", "https://app.example.com", "https://app.example.com"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeOrigin(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizeOrigin("ftp://example.com")
	assert.Error(t, err)
}
