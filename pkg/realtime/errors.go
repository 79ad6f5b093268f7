package realtime

import "errors"

var (
	// ErrInvalidEndpoint is returned when the channel endpoint cannot be parsed.
	ErrInvalidEndpoint = errors.New("realtime: invalid channel endpoint")

	// ErrDialFailed wraps a failed WebSocket handshake.
	ErrDialFailed = errors.New("realtime: dial failed")

	// ErrTokenFetchFailed wraps a failed realtime-token request.
	ErrTokenFetchFailed = errors.New("realtime: token fetch failed")

	// ErrTokenEndpointRequired is returned when the endpoint is cross-origin
	// and no token endpoint is configured.
	ErrTokenEndpointRequired = errors.New("realtime: cross-origin endpoint requires a token endpoint")

	// ErrRetriesExhausted is returned when the reconnect policy gives up.
	// The channel stays failed until Reconnect is called.
	ErrRetriesExhausted = errors.New("realtime: retries exhausted")
)
