package permsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/authsync/pkg/logger"
	"github.com/sentinelhq/authsync/pkg/permcache"
)

// Engine keeps the active tenant's permission set in sync with the server.
// One engine serves one tenant at a time; ResetForTenant rebinds it.
type Engine struct {
	client       *http.Client
	endpoint     string
	cache        permcache.Store
	log          *slog.Logger
	pollInterval time.Duration
	tenantHeader string

	mu             sync.Mutex
	snap           Snapshot
	inflight       chan struct{} // non-nil while a fetch is outstanding, closed on completion
	inflightTenant uuid.UUID
	subs           map[int]func(Snapshot)
	nextSub        int
	started        bool
	stop           chan struct{}
	done           chan struct{}

	focus chan struct{}
	stale chan struct{}
}

// New creates an engine for the given sync endpoint. Bind a tenant with
// ResetForTenant before fetching.
func New(endpoint string, opts ...Option) (*Engine, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	e := &Engine{
		client:       http.DefaultClient,
		endpoint:     endpoint,
		log:          slog.Default(),
		pollInterval: DefaultPollInterval,
		tenantHeader: DefaultTenantHeader,
		subs:         make(map[int]func(Snapshot)),
		focus:        make(chan struct{}, 1),
		stale:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Current returns the engine's current snapshot.
func (e *Engine) Current() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// ConfirmedVersion returns the held version and whether it is server-confirmed.
func (e *Engine) ConfirmedVersion() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Version, e.snap.Confirmed
}

// Subscribe registers a callback invoked on every snapshot change.
// The returned function cancels the subscription.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Engine) notify(snap Snapshot) {
	e.mu.Lock()
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// ResetForTenant rebinds the engine to a new tenant. The stored ETag is
// dropped so the next fetch is unconditional, and cached permissions are
// painted optimistically (Confirmed=false) while Loading stays true until
// the network confirms. Revoked permissions must never appear valid only
// because a stale cache entry still exists.
func (e *Engine) ResetForTenant(ctx context.Context, tenantID uuid.UUID) {
	e.mu.Lock()
	e.snap = Snapshot{TenantID: tenantID, Loading: true}
	snap := e.snap
	e.mu.Unlock()
	e.notify(snap)

	if e.cache == nil {
		return
	}
	entry, err := e.cache.Read(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, permcache.ErrNotFound) {
			e.log.WarnContext(ctx, "permission cache read failed",
				logger.Component("permsync"),
				logger.TenantID(tenantID),
				logger.Error(err))
		}
		return
	}

	e.mu.Lock()
	if e.snap.TenantID == tenantID && !e.snap.Confirmed {
		e.snap.Permissions = entry.Permissions
		e.snap.Version = entry.Version
		// ETag stays empty: the first fetch after a switch must be full.
	}
	snap = e.snap
	e.mu.Unlock()
	e.notify(snap)
}

// Fetch refreshes the permission set. When a fetch is already in flight for
// the same tenant the call coalesces into it and returns its result. force
// drops the ETag precondition.
func (e *Engine) Fetch(ctx context.Context, force bool) Snapshot {
	for {
		e.mu.Lock()
		if e.snap.TenantID == uuid.Nil {
			snap := e.snap
			snap.Err = ErrNoTenant
			e.mu.Unlock()
			return snap
		}
		if e.inflight == nil {
			break // lock still held
		}
		ch := e.inflight
		coalesce := e.inflightTenant == e.snap.TenantID
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return e.Current()
		}
		if coalesce {
			return e.Current()
		}
		// The outstanding request belonged to a previous tenant; its
		// response will be discarded, so issue our own.
	}

	ch := make(chan struct{})
	tenantID := e.snap.TenantID
	e.inflight = ch
	e.inflightTenant = tenantID
	etag := e.snap.ETag
	if force {
		etag = ""
	}
	e.snap.Loading = true
	loading := e.snap
	e.mu.Unlock()
	e.notify(loading)

	res := e.doFetch(ctx, tenantID, etag)

	var confirmed *permcache.Entry
	e.mu.Lock()
	e.inflight = nil
	if e.snap.TenantID == tenantID {
		confirmed = e.applyLocked(res)
	} else {
		e.log.DebugContext(ctx, "discarding permission response for previous tenant",
			logger.Component("permsync"),
			logger.TenantID(tenantID))
	}
	snap := e.snap
	e.mu.Unlock()
	close(ch)

	if confirmed != nil && e.cache != nil {
		if err := e.cache.Write(ctx, *confirmed); err != nil {
			e.log.WarnContext(ctx, "permission cache write failed",
				logger.Component("permsync"),
				logger.TenantID(tenantID),
				logger.Error(err))
		}
	}
	e.notify(snap)
	return snap
}

type fetchResult struct {
	status  int
	perms   []string
	version int64
	etag    string
	err     error
}

func (e *Engine) doFetch(ctx context.Context, tenantID uuid.UUID, etag string) fetchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint, nil)
	if err != nil {
		return fetchResult{err: errors.Join(ErrFetchFailed, err)}
	}
	req.Header.Set(e.tenantHeader, tenantID.String())
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fetchResult{err: errors.Join(ErrFetchFailed, err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		return fetchResult{status: http.StatusNotModified}
	case http.StatusOK:
		var body struct {
			Permissions []string `json:"permissions"`
			Version     int64    `json:"version"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fetchResult{err: errors.Join(ErrFetchFailed, err)}
		}
		return fetchResult{
			status:  http.StatusOK,
			perms:   body.Permissions,
			version: body.Version,
			etag:    resp.Header.Get("ETag"),
		}
	default:
		return fetchResult{err: fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)}
	}
}

// applyLocked folds a fetch result into the snapshot. Caller holds e.mu.
// Returns a cache entry when a confirmed 200 was applied.
func (e *Engine) applyLocked(res fetchResult) *permcache.Entry {
	e.snap.Loading = false

	switch {
	case res.err != nil:
		// Keep the last known-good set; the next trigger retries.
		e.snap.Err = res.err
		e.log.Warn("permission fetch failed",
			logger.Component("permsync"),
			logger.TenantID(e.snap.TenantID),
			logger.Error(res.err))
		return nil

	case res.status == http.StatusNotModified:
		e.snap.Stale = false
		e.snap.Confirmed = true
		e.snap.Err = nil
		return nil

	default: // 200
		if e.snap.Confirmed && res.version < e.snap.Version {
			// Out-of-order delivery: a confirmed response may never roll
			// the version back.
			e.log.Warn("rejecting out-of-order permission response",
				logger.Component("permsync"),
				slog.Int64("held_version", e.snap.Version),
				slog.Int64("received_version", res.version))
			return nil
		}
		if !e.snap.Confirmed && res.version < e.snap.Version {
			// The server is the source of truth, but the cache only ever
			// holds confirmed sets, so a downgrade past the painted version
			// is anomalous.
			e.log.Warn("confirmed version below cached paint",
				logger.Component("permsync"),
				slog.Int64("painted_version", e.snap.Version),
				slog.Int64("received_version", res.version))
		}
		e.snap.Permissions = res.perms
		e.snap.Version = res.version
		e.snap.ETag = res.etag
		e.snap.Confirmed = true
		e.snap.Stale = false
		e.snap.Err = nil
		return &permcache.Entry{
			TenantID:    e.snap.TenantID,
			Permissions: res.perms,
			Version:     res.version,
			ETag:        res.etag,
		}
	}
}

// MarkStale flags the held set as possibly out of date and, when the engine
// is running, triggers an immediate forced refresh.
func (e *Engine) MarkStale() {
	e.mu.Lock()
	e.snap.Stale = true
	snap := e.snap
	e.mu.Unlock()
	e.notify(snap)

	select {
	case e.stale <- struct{}{}:
	default:
	}
}

// NotifyFocus signals that the host application regained focus. The running
// engine treats it as a refresh trigger, coalesced like any other.
func (e *Engine) NotifyFocus() {
	select {
	case e.focus <- struct{}{}:
	default:
	}
}

// Start launches the scheduler: an immediate fetch, a fixed-interval poll,
// and the focus/stale signals. Idempotent while running.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	e.mu.Unlock()

	go e.run(ctx, stop, done)
}

func (e *Engine) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	e.Fetch(ctx, false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			e.Fetch(ctx, false)
		case <-e.focus:
			e.Fetch(ctx, false)
		case <-e.stale:
			e.Fetch(ctx, true)
		}
	}
}

// Stop tears down the scheduler and waits for it to finish. Safe to call
// when not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	stop, done := e.stop, e.done
	e.mu.Unlock()

	close(stop)
	<-done
}
