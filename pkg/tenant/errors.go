package tenant

import "errors"

var (
	// ErrUnauthenticated is returned by a Lister when the server rejects
	// the session credentials (expired or invalid).
	ErrUnauthenticated = errors.New("tenant: credentials rejected by server")

	// ErrNoSelection is returned by a SelectionStore when no tenant has
	// ever been selected.
	ErrNoSelection = errors.New("tenant: no tenant selected")

	// ErrUnknownTenant is returned by Switch when the id does not belong
	// to any accessible tenant.
	ErrUnknownTenant = errors.New("tenant: unknown tenant id")

	// ErrListFailed wraps transport failures while listing tenants.
	ErrListFailed = errors.New("tenant: listing tenants failed")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("tenant: no tenant in context")
)
