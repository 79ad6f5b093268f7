package authsync

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when the session is running.
	ErrAlreadyStarted = errors.New("authsync: session already started")

	// ErrNotStarted is returned by operations that require a running session.
	ErrNotStarted = errors.New("authsync: session not started")

	// ErrAPIBaseURLRequired is returned when the configuration has no API
	// base URL.
	ErrAPIBaseURLRequired = errors.New("authsync: API base URL is required")
)
