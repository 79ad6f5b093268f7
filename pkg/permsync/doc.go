// Package permsync maintains the authoritative permission set for the
// active tenant and keeps it fresh while the server can change it
// independently.
//
// The Engine funnels four independent triggers into one fetch path: the
// initial fetch after a tenant is bound, a fixed-interval poll, an external
// focus signal (NotifyFocus), and an out-of-band staleness signal
// (MarkStale). Triggers that fire while a request is in flight are coalesced
// into it: no second request is issued, and every caller observes the result
// of the single outstanding fetch.
//
// Fetches are conditional: the stored ETag is sent as If-None-Match unless
// the fetch is forced. A 304 leaves the held permission set untouched and
// clears the stale flag; a 200 replaces the set, version and ETag and
// persists the confirmed result to the permission cache. Transport failures
// never blank the held set; the engine records the error and relies on the
// next trigger.
//
// Correctness under tenant switches comes from stamping, not locking out
// callers: every request carries the tenant id active at issue time, and a
// response arriving after the tenant changed is discarded. Confirmed
// versions are monotonic per tenant; a confirmed response with a lower
// version than currently held is rejected.
//
// Snapshot carries the confirmed-versus-optimistic duality explicitly:
// after a tenant switch the engine paints cached permissions immediately
// with Confirmed=false and keeps Loading=true until the network confirms.
// Consumers that gate sensitive UI must check Confirmed, not just the
// permission list.
//
// StaleDetector is an http.RoundTripper for the application's API client:
// it raises MarkStale when any response carries a permission-version marker
// that disagrees with the engine's confirmed version, or returns
// 403 Forbidden. Do not install it on the engine's own HTTP client.
package permsync
