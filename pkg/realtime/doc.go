// Package realtime maintains one live push channel scoped to the active
// tenant.
//
// The connection lifecycle is an explicit state machine:
//
//	disconnected -> connecting -> connected
//	connected    -> reconnecting        (unexpected drop)
//	reconnecting -> connected | failed  (bounded backoff, then give up)
//	failed       -> connecting          (manual Reconnect only)
//
// Transitions never skip connecting, and failed is terminal until the
// caller explicitly reconnects; the manager performs no further automatic
// retries once the retry policy is exhausted. Callers are expected to
// degrade to polling-only when the channel fails.
//
// Authentication depends on where the channel lives. A same-origin endpoint
// reuses the session cookies from the HTTP client's jar, attached to the
// WebSocket handshake. A cross-origin endpoint cannot receive those
// cookies, so a short-lived bearer token is first obtained from a dedicated
// token endpoint and passed as a connection parameter. The token is scoped
// to a tenant: on tenant switch or Close the channel is torn down and the
// token-fetched flag reset, so a fresh token is fetched before the next
// connect. A token is never reused across tenants.
package realtime
