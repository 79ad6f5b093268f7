package authsync

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/sentinelhq/authsync/pkg/logger"
	"github.com/sentinelhq/authsync/pkg/permcache"
	"github.com/sentinelhq/authsync/pkg/permsync"
	"github.com/sentinelhq/authsync/pkg/realtime"
	"github.com/sentinelhq/authsync/pkg/tenant"
)

// Session is the facade over tenant resolution, permission sync and the
// realtime connection. One Session serves one logged-in user.
type Session struct {
	cfg      Config
	log      *slog.Logger
	cache    permcache.Store
	resolver *tenant.Resolver
	engine   *permsync.Engine
	realtime *realtime.Manager // nil when no realtime endpoint is configured

	mu         sync.Mutex
	started    bool
	resolution tenant.Resolution
}

// NewSession wires a Session from the configuration. The default layout
// keeps the permission cache, tenant selection and credential marker as
// files under cfg.DataDir; WithCacheStore swaps the cache for another
// backend such as Redis.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if cfg.APIBaseURL == "" {
		return nil, ErrAPIBaseURLRequired
	}

	sc := &sessionConfig{
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.log == nil {
		sc.log = logger.New(
			logger.WithEnvironment(cfg.Environment, "authsync"),
			logger.WithContextExtractors(tenant.LoggerExtractor()),
		)
	}

	cache := sc.cache
	if cache == nil {
		fs, err := permcache.NewFileStore(cfg.DataDir, permcache.WithTTL(cfg.CacheTTL))
		if err != nil {
			return nil, err
		}
		cache = fs
	}

	selection, err := tenant.NewFileSelectionStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	creds, err := tenant.NewFileCredentialStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	engineOpts := append([]permsync.Option{
		permsync.WithCache(cache),
		permsync.WithHTTPClient(sc.client),
		permsync.WithLogger(sc.log),
		permsync.WithPollInterval(cfg.PollInterval),
	}, sc.engineOpts...)
	engine, err := permsync.New(cfg.APIBaseURL+cfg.PermissionsPath, engineOpts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		log:    sc.log,
		cache:  cache,
		engine: engine,
	}

	if cfg.RealtimeURL != "" {
		rtOpts := append([]realtime.Option{
			realtime.WithTokenEndpoint(cfg.APIBaseURL + cfg.RealtimeTokenPath),
			realtime.WithHTTPClient(sc.client),
			realtime.WithLogger(sc.log),
			realtime.WithMessageHandler(s.handleRealtimeMessage),
		}, sc.realtimeOpts...)
		rt, err := realtime.New(cfg.RealtimeURL, cfg.APIBaseURL, rtOpts...)
		if err != nil {
			return nil, err
		}
		s.realtime = rt
	}

	lister := tenant.NewHTTPLister(sc.client, cfg.APIBaseURL+cfg.TenantsPath)

	// The realtime connection is torn down before the engine repaints so a
	// switch never delivers events for the previous tenant.
	resettables := make([]tenant.Resettable, 0, 2)
	if s.realtime != nil {
		resettables = append(resettables, s.realtime)
	}
	resettables = append(resettables, engine)

	resolver, err := tenant.NewResolver(lister, selection,
		tenant.WithCredentialStore(creds),
		tenant.WithResettables(resettables...),
		tenant.WithLogger(sc.log),
	)
	if err != nil {
		return nil, err
	}
	s.resolver = resolver

	return s, nil
}

// Start resolves the active tenant and, when the outcome is the dashboard,
// begins permission sync and connects the realtime channel. A failed
// realtime connection is logged and the session continues on interval
// polling alone.
func (s *Session) Start(ctx context.Context) (tenant.Resolution, error) {
	// Claim the started flag before any work so a concurrent Start cannot
	// resolve and launch the engine twice. Rolled back on error.
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return tenant.Resolution{}, ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.cache.CleanupExpired(ctx); err != nil {
		s.log.WarnContext(ctx, "permission cache cleanup failed",
			logger.Component("authsync"),
			logger.Error(err))
	}

	res, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return tenant.Resolution{}, err
	}

	if res.Outcome == tenant.OutcomeDashboard && res.Active != nil {
		ctx := tenant.WithTenant(ctx, res.Active)
		s.engine.ResetForTenant(ctx, res.Active.ID)
		s.engine.Start(ctx)
		if s.realtime != nil {
			s.realtime.ResetForTenant(ctx, res.Active.ID)
			if err := s.realtime.Connect(ctx); err != nil {
				s.log.WarnContext(ctx, "realtime unavailable, relying on polling",
					logger.Component("authsync"),
					logger.Error(err))
			}
		}
	}

	s.mu.Lock()
	s.resolution = res
	s.mu.Unlock()
	return res, nil
}

// SwitchTenant changes the active tenant: the realtime channel is closed,
// the selection persisted, the permission set repainted from cache and
// confirmed against the server, and the channel reconnected under the new
// tenant's token.
func (s *Session) SwitchTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	s.mu.Unlock()

	t, err := s.resolver.Switch(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx = tenant.WithTenant(ctx, t)
	s.engine.Fetch(ctx, false)
	if s.realtime != nil {
		if err := s.realtime.Connect(ctx); err != nil {
			s.log.WarnContext(ctx, "realtime unavailable after tenant switch",
				logger.Component("authsync"),
				logger.TenantID(id),
				logger.Error(err))
		}
	}

	s.mu.Lock()
	s.resolution.Active = t
	s.mu.Unlock()
	return t, nil
}

// Resolution returns the outcome of the last Start or SwitchTenant.
func (s *Session) Resolution() tenant.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolution
}

// Context annotates ctx with the active tenant so downstream calls and the
// session logger's context extractor can attribute work to it. Without an
// active tenant the context is returned unchanged.
func (s *Session) Context(ctx context.Context) context.Context {
	s.mu.Lock()
	active := s.resolution.Active
	s.mu.Unlock()
	if active == nil {
		return ctx
	}
	return tenant.WithTenant(ctx, active)
}

// Permissions returns the current permission snapshot.
func (s *Session) Permissions() permsync.Snapshot {
	return s.engine.Current()
}

// Has reports whether the current snapshot grants the permission.
func (s *Session) Has(permission string) bool {
	return s.engine.Current().Has(permission)
}

// Subscribe registers a callback for permission snapshot changes and
// returns an unsubscribe function.
func (s *Session) Subscribe(fn func(permsync.Snapshot)) func() {
	return s.engine.Subscribe(fn)
}

// NotifyFocus signals that the application regained the user's attention
// and triggers a non-forced permission refresh.
func (s *Session) NotifyFocus() {
	s.engine.NotifyFocus()
}

// ConnectionState returns the realtime channel state. Without a realtime
// endpoint it is always Disconnected.
func (s *Session) ConnectionState() realtime.State {
	if s.realtime == nil {
		return realtime.StateDisconnected
	}
	return s.realtime.State()
}

// SubscribeConnectionState registers a callback for realtime state changes.
func (s *Session) SubscribeConnectionState(fn func(realtime.State)) func() {
	if s.realtime == nil {
		return func() {}
	}
	return s.realtime.SubscribeState(fn)
}

// Reconnect retries the realtime channel after retries were exhausted.
func (s *Session) Reconnect(ctx context.Context) error {
	if s.realtime == nil {
		return nil
	}
	return s.realtime.Reconnect(ctx)
}

// Stop shuts the session down. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.engine.Stop()
	if s.realtime != nil {
		s.realtime.Close()
	}
	if err := s.cache.Close(); err != nil {
		s.log.Warn("permission cache close failed",
			logger.Component("authsync"),
			logger.Error(err))
	}
}

// realtimeEvent is the envelope pushed over the realtime channel.
type realtimeEvent struct {
	Type    string `json:"type"`
	Version int64  `json:"version,omitempty"`
}

func (s *Session) handleRealtimeMessage(data []byte) {
	var ev realtimeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.log.Debug("undecodable realtime event",
			logger.Component("authsync"),
			logger.Error(err))
		return
	}
	switch ev.Type {
	case "permissions.updated":
		// Skip the refetch when the push announces a version we already
		// hold confirmed.
		if held, ok := s.engine.ConfirmedVersion(); ok && ev.Version > 0 && ev.Version <= held {
			return
		}
		s.engine.MarkStale()
	default:
		s.log.Debug("ignoring realtime event",
			logger.Component("authsync"),
			logger.Event(ev.Type))
	}
}
