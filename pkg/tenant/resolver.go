package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sentinelhq/authsync/pkg/logger"
)

// Outcome is the resolver's rendering decision.
type Outcome int

const (
	// OutcomeUnknown is the zero value; Resolve never returns it without an error.
	OutcomeUnknown Outcome = iota

	// OutcomeDashboard: an accessible tenant is active, proceed normally.
	OutcomeDashboard

	// OutcomeOnboarding: valid credentials but no tenants; show the
	// create-team flow inside the normal chrome.
	OutcomeOnboarding

	// OutcomeLogin: the session expired; redirect to login. The tenant
	// selection is preserved for after re-login.
	OutcomeLogin

	// OutcomeCreateTeam: a brand-new user with neither valid credentials
	// nor a past selection; show the create-team view without a sidebar.
	OutcomeCreateTeam
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeDashboard:
		return "dashboard"
	case OutcomeOnboarding:
		return "onboarding"
	case OutcomeLogin:
		return "login"
	case OutcomeCreateTeam:
		return "create-team"
	default:
		return "unknown"
	}
}

// Resolution is the result of resolving the active tenant.
type Resolution struct {
	Outcome Outcome
	Tenants []Tenant
	Active  *Tenant
}

// Resolver determines the active tenant and owns redirect decisions.
type Resolver struct {
	lister      Lister
	selection   SelectionStore
	credentials CredentialStore
	log         *slog.Logger
	resettables []Resettable

	tenants []Tenant
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCredentialStore sets the store cleared on session expiry.
func WithCredentialStore(store CredentialStore) ResolverOption {
	return func(r *Resolver) {
		r.credentials = store
	}
}

// WithResettables registers tenant-scoped components reset on Switch,
// in the given order.
func WithResettables(components ...Resettable) ResolverOption {
	return func(r *Resolver) {
		r.resettables = append(r.resettables, components...)
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a resolver over the given server lister and selection store.
func NewResolver(lister Lister, selection SelectionStore, opts ...ResolverOption) (*Resolver, error) {
	if lister == nil {
		return nil, errors.New("tenant: lister is required")
	}
	if selection == nil {
		return nil, errors.New("tenant: selection store is required")
	}

	r := &Resolver{
		lister:    lister,
		selection: selection,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve determines the active tenant. The outcome decision is made only
// after the server answers; the persisted selection alone proves nothing
// because lower layers verify credential presence, not validity.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	selectedID, selErr := r.selection.Load(ctx)
	hadSelection := selErr == nil
	if selErr != nil && !errors.Is(selErr, ErrNoSelection) {
		return Resolution{}, selErr
	}

	tenants, err := r.lister.ListTenants(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			if hadSelection {
				// Session expired. Drop the credential but keep the
				// selection so re-login restores the same team.
				if r.credentials != nil {
					if cerr := r.credentials.Clear(ctx); cerr != nil {
						r.log.WarnContext(ctx, "clearing expired credential failed",
							logger.Component("tenant"),
							logger.Error(cerr))
					}
				}
				r.log.InfoContext(ctx, "session expired, redirecting to login",
					logger.Component("tenant"),
					logger.TenantID(selectedID))
				return Resolution{Outcome: OutcomeLogin}, nil
			}
			return Resolution{Outcome: OutcomeCreateTeam}, nil
		}
		return Resolution{}, fmt.Errorf("tenant: resolve: %w", err)
	}

	r.tenants = tenants

	if len(tenants) == 0 {
		return Resolution{Outcome: OutcomeOnboarding}, nil
	}

	active := findTenant(tenants, selectedID)
	if active == nil {
		// Selection missing or orphaned: fall back to the first tenant
		// and persist that choice.
		active = &tenants[0]
		if err := r.selection.Save(ctx, active.ID); err != nil {
			return Resolution{}, fmt.Errorf("tenant: persist fallback selection: %w", err)
		}
	}

	return Resolution{Outcome: OutcomeDashboard, Tenants: tenants, Active: active}, nil
}

// Switch persists the new selection and resets every registered
// tenant-scoped component, in registration order.
func (r *Resolver) Switch(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	target := findTenant(r.tenants, id)
	if target == nil {
		return nil, ErrUnknownTenant
	}

	if err := r.selection.Save(ctx, id); err != nil {
		return nil, fmt.Errorf("tenant: persist selection: %w", err)
	}

	for _, component := range r.resettables {
		component.ResetForTenant(ctx, id)
	}

	r.log.InfoContext(ctx, "switched tenant",
		logger.Component("tenant"),
		logger.TenantID(id))
	return target, nil
}

func findTenant(tenants []Tenant, id uuid.UUID) *Tenant {
	if id == uuid.Nil {
		return nil
	}
	for i := range tenants {
		if tenants[i].ID == id {
			return &tenants[i]
		}
	}
	return nil
}
