// Package tenant resolves and tracks the active tenant for an authenticated
// client session.
//
// Resolve combines a persisted tenant selection with the server's answer to
// "which tenants may these credentials access" and produces one of four
// outcomes, in priority order:
//
//  1. The server rejects the credentials. With a previous selection this is
//     a session expiry: only the credential is cleared (the selection
//     survives so re-login lands on the same team) and the outcome is
//     OutcomeLogin. Without any previous selection the caller is a new
//     user: OutcomeCreateTeam.
//  2. The credentials are valid but grant access to zero tenants:
//     OutcomeOnboarding.
//  3. The persisted selection does not match any returned tenant: the first
//     tenant is selected and persisted, outcome OutcomeDashboard.
//  4. The selection matches: OutcomeDashboard.
//
// The resolver never decides between these outcomes before the server
// response arrives. Lower layers can only verify that a credential is
// present, not that it is valid; deciding early on presence alone sends
// users with expired credentials to onboarding even though they have a team.
//
// Switch persists a new selection and resets every registered Resettable
// (the sync engine, the realtime channel) so their state is rebuilt for the
// new tenant in registration order.
package tenant
