package jobpoller

import "errors"

var (
	// ErrJobInProgress is returned by Request while a job for the same
	// target is still pending or processing.
	ErrJobInProgress = errors.New("jobpoller: job already in progress for target")

	// ErrRequestFailed is returned when the job creation request is
	// rejected by the server.
	ErrRequestFailed = errors.New("jobpoller: job request failed")

	// ErrStatusFailed is returned when a status poll cannot be completed.
	ErrStatusFailed = errors.New("jobpoller: job status fetch failed")

	// ErrEndpointRequired is returned when the client is constructed
	// without a job endpoint.
	ErrEndpointRequired = errors.New("jobpoller: job endpoint is required")
)
