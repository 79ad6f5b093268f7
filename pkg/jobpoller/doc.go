// Package jobpoller watches server-side asynchronous jobs to completion.
//
// It is the reusable primitive behind every "request analysis, then poll"
// feature: Request triggers job creation (or restart) on the server and
// begins polling the job's status immediately. While a job for the same
// target is still pending or processing, further Request calls are rejected
// as no-ops and the running job's backoff state is untouched.
//
// Polling uses multiplicative backoff: the interval starts at the base,
// grows by a fixed factor after each poll, and is capped at a maximum
// (defaults: 2s, 1.5, 10s, giving 2000, 3000, 4500, 6750, 10000, 10000 ms).
// The interval resets to the base only when a new job starts for the
// target; it only grows while the same job remains non-terminal.
//
// On reaching a terminal status the poller stops and fires exactly one
// notification, completion or failure, tracked via the previously observed
// status so a duplicate poll tick can never double-fire. Failures are
// terminal and surfaced to the caller; retrying is an explicit new Request.
package jobpoller
