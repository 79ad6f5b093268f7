package permsync

import "errors"

var (
	// ErrFetchFailed is returned when the sync request cannot be completed.
	ErrFetchFailed = errors.New("permsync: permission fetch failed")

	// ErrNoTenant is reported when a fetch is attempted before a tenant is bound.
	ErrNoTenant = errors.New("permsync: no tenant bound")

	// ErrEndpointRequired is returned when the engine is created without an endpoint.
	ErrEndpointRequired = errors.New("permsync: sync endpoint is required")
)
