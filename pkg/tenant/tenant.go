package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Tenant is the minimal tenant record the client needs for request scoping
// and UI display.
type Tenant struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// Lister fetches the tenants the current credentials may access.
// Implementations must map a credential rejection (expired or invalid) to
// ErrUnauthenticated and wrap transport failures in ErrListFailed, so the
// resolver can tell "session expired" from "network down".
type Lister interface {
	ListTenants(ctx context.Context) ([]Tenant, error)
}

// SelectionStore persists the selected tenant id across sessions.
// It is deliberately separate from the credential store: a session expiry
// clears the credential but keeps the selection, so re-login restores the
// same team.
type SelectionStore interface {
	// Load returns the persisted selection, or ErrNoSelection.
	Load(ctx context.Context) (uuid.UUID, error)

	// Save persists the selection.
	Save(ctx context.Context, id uuid.UUID) error

	// Clear removes the selection. Used on explicit logout only.
	Clear(ctx context.Context) error
}

// CredentialStore clears the session credential on expiry. The selection
// store is never touched through this interface.
type CredentialStore interface {
	Clear(ctx context.Context) error
}

// Resettable is implemented by components whose state is scoped to a tenant
// and must be torn down and rebuilt on switch.
type Resettable interface {
	ResetForTenant(ctx context.Context, id uuid.UUID)
}
