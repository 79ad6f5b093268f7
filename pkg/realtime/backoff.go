package realtime

import (
	"math"
	"time"
)

// Backoff is the bounded retry policy for reconnect attempts.
type Backoff struct {
	Base        time.Duration
	Factor      float64
	Cap         time.Duration
	MaxAttempts int
}

// DefaultBackoff retries five times, 500ms doubling up to 8s.
var DefaultBackoff = Backoff{
	Base:        500 * time.Millisecond,
	Factor:      2,
	Cap:         8 * time.Second,
	MaxAttempts: 5,
}

// Delay returns the wait before the given zero-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := time.Duration(float64(b.Base) * math.Pow(b.Factor, float64(attempt)))
	if b.Cap > 0 && d > b.Cap {
		return b.Cap
	}
	return d
}
