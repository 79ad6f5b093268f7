// Package authsync keeps a client process's session, tenant selection and
// permission set synchronized with a multi-tenant backend.
//
// The package wires four concerns into a single Session facade:
//
//   - tenant resolution: which tenant is active and where the client should
//     route on startup (dashboard, onboarding, login, create-team).
//   - permission synchronization: a coalescing fetch engine with ETag
//     conditional requests, version monotonicity and an on-disk cache for
//     optimistic startup paint.
//   - realtime invalidation: a websocket connection whose push events mark
//     the held permission set stale and trigger an immediate refetch.
//   - async job polling: request/poll helpers for long-running server jobs.
//
// # Usage
//
//	cfg, err := authsync.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sess, err := authsync.NewSession(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := sess.Start(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	switch res.Outcome {
//	case tenant.OutcomeDashboard:
//	    // proceed; sess.Permissions() is already painted
//	case tenant.OutcomeLogin:
//	    // redirect to login
//	}
//	defer sess.Stop()
//
// The subpackages under pkg/ are usable on their own when the facade's
// wiring does not fit.
package authsync
