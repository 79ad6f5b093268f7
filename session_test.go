package authsync_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/sentinelhq/authsync"
	"github.com/sentinelhq/authsync/pkg/logger"
	"github.com/sentinelhq/authsync/pkg/tenant"
)

// quiet silences the session's default logger in tests that do not
// assert on log output.
func quiet() authsync.Option {
	return authsync.WithLogger(logger.New(logger.WithOutput(io.Discard)))
}

// backend fakes the tenant and permission endpoints of the API.
type backend struct {
	mu       sync.Mutex
	tenants  []tenant.Tenant
	authFail bool
	perms    map[uuid.UUID][]string
	versions map[uuid.UUID]int64

	srv *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		perms:    make(map[uuid.UUID][]string),
		versions: make(map[uuid.UUID]int64),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tenants", b.handleTenants)
	mux.HandleFunc("/api/permissions", b.handlePermissions)
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) addTenant(slug string, perms []string) tenant.Tenant {
	b.mu.Lock()
	defer b.mu.Unlock()
	tn := tenant.Tenant{ID: uuid.New(), Slug: slug, Name: slug, Role: "member"}
	b.tenants = append(b.tenants, tn)
	b.perms[tn.ID] = perms
	b.versions[tn.ID] = 1
	return tn
}

func (b *backend) setPerms(id uuid.UUID, perms []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perms[id] = perms
	b.versions[id]++
}

func (b *backend) setAuthFail(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authFail = v
}

func (b *backend) handleTenants(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.authFail {
		http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(b.tenants)
}

func (b *backend) handlePermissions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, err := uuid.Parse(r.Header.Get("X-Tenant-ID"))
	if err != nil {
		http.Error(w, "bad tenant", http.StatusBadRequest)
		return
	}
	version := b.versions[id]
	etag := fmt.Sprintf("W/%q", fmt.Sprintf("v%d", version))
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	json.NewEncoder(w).Encode(map[string]any{
		"permissions": b.perms[id],
		"version":     version,
	})
}

func (b *backend) config(t *testing.T) authsync.Config {
	t.Helper()
	return authsync.Config{
		APIBaseURL:      b.srv.URL,
		TenantsPath:     "/api/tenants",
		PermissionsPath: "/api/permissions",
		DataDir:         t.TempDir(),
		PollInterval:    time.Minute,
		CacheTTL:        time.Hour,
	}
}

func TestNewSession_RequiresBaseURL(t *testing.T) {
	t.Parallel()
	_, err := authsync.NewSession(authsync.Config{})
	require.ErrorIs(t, err, authsync.ErrAPIBaseURLRequired)
}

func TestSession_Start(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("dashboard with confirmed permissions", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		tn := b.addTenant("acme", []string{"reports.view"})

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		res, err := sess.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant.OutcomeDashboard, res.Outcome)
		require.NotNil(t, res.Active)
		assert.Equal(t, tn.ID, res.Active.ID)

		require.Eventually(t, func() bool {
			snap := sess.Permissions()
			return snap.Confirmed && snap.Has("reports.view")
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("rejects a second start", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		b.addTenant("acme", nil)

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		_, err = sess.Start(ctx)
		require.NoError(t, err)
		_, err = sess.Start(ctx)
		require.ErrorIs(t, err, authsync.ErrAlreadyStarted)
	})

	t.Run("concurrent starts admit exactly one", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		b.addTenant("acme", nil)

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		const attempts = 4
		errs := make([]error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = sess.Start(ctx)
			}()
		}
		wg.Wait()

		var started, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				started++
			case errors.Is(err, authsync.ErrAlreadyStarted):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, started)
		assert.Equal(t, attempts-1, rejected)
	})

	t.Run("expired session without selection", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		b.setAuthFail(true)

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		res, err := sess.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant.OutcomeCreateTeam, res.Outcome)
	})

	t.Run("expired session keeps prior selection", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		tn := b.addTenant("acme", nil)
		cfg := b.config(t)

		selection, err := tenant.NewFileSelectionStore(cfg.DataDir)
		require.NoError(t, err)
		require.NoError(t, selection.Save(ctx, tn.ID))

		b.setAuthFail(true)

		sess, err := authsync.NewSession(cfg, quiet())
		require.NoError(t, err)
		defer sess.Stop()

		res, err := sess.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant.OutcomeLogin, res.Outcome)

		// Re-login must land on the same tenant.
		saved, err := selection.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, tn.ID, saved)
	})

	t.Run("no tenants means onboarding", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		res, err := sess.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, tenant.OutcomeOnboarding, res.Outcome)
	})
}

func TestSession_SwitchTenant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("switch repaints and confirms", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		b.addTenant("acme", []string{"reports.view"})
		other := b.addTenant("globex", []string{"billing.manage"})

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		_, err = sess.Start(ctx)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return sess.Permissions().Confirmed
		}, 2*time.Second, 10*time.Millisecond)

		switched, err := sess.SwitchTenant(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "globex", switched.Slug)

		require.Eventually(t, func() bool {
			snap := sess.Permissions()
			return snap.TenantID == other.ID && snap.Confirmed && snap.Has("billing.manage")
		}, 2*time.Second, 10*time.Millisecond)
		assert.False(t, sess.Has("reports.view"))
	})

	t.Run("unknown tenant rejected", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		b.addTenant("acme", nil)

		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)
		defer sess.Stop()

		_, err = sess.Start(ctx)
		require.NoError(t, err)

		_, err = sess.SwitchTenant(ctx, uuid.New())
		require.ErrorIs(t, err, tenant.ErrUnknownTenant)
	})

	t.Run("requires a started session", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		sess, err := authsync.NewSession(b.config(t), quiet())
		require.NoError(t, err)

		_, err = sess.SwitchTenant(ctx, uuid.New())
		require.ErrorIs(t, err, authsync.ErrNotStarted)
	})
}

func TestSession_Context(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := newBackend(t)
	tn := b.addTenant("acme", nil)

	var logs bytes.Buffer
	log := logger.New(
		logger.WithOutput(&logs),
		logger.WithJSONFormatter(),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)

	sess, err := authsync.NewSession(b.config(t), authsync.WithLogger(log))
	require.NoError(t, err)
	defer sess.Stop()

	// Before the session resolves, Context is a passthrough.
	_, ok := tenant.FromContext(sess.Context(ctx))
	assert.False(t, ok)

	_, err = sess.Start(ctx)
	require.NoError(t, err)

	tctx := sess.Context(ctx)
	got, ok := tenant.FromContext(tctx)
	require.True(t, ok)
	assert.Equal(t, tn.ID, got.ID)

	logs.Reset()
	log.InfoContext(tctx, "tenant scoped request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, tn.ID.String(), entry["tenant_id"])
}

func TestSession_RealtimeInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := newBackend(t)
	tn := b.addTenant("acme", []string{"reports.view"})

	push := make(chan []byte)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tenants", b.handleTenants)
	mux.HandleFunc("/api/permissions", b.handlePermissions)
	mux.Handle("/channel", websocket.Handler(func(ws *websocket.Conn) {
		for msg := range push {
			if err := websocket.Message.Send(ws, msg); err != nil {
				return
			}
		}
	}))
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(push)

	cfg := authsync.Config{
		APIBaseURL:      srv.URL,
		TenantsPath:     "/api/tenants",
		PermissionsPath: "/api/permissions",
		RealtimeURL:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/channel",
		DataDir:         t.TempDir(),
		PollInterval:    time.Minute,
		CacheTTL:        time.Hour,
	}

	sess, err := authsync.NewSession(cfg, quiet())
	require.NoError(t, err)
	defer sess.Stop()

	res, err := sess.Start(ctx)
	require.NoError(t, err)
	require.Equal(t, tenant.OutcomeDashboard, res.Outcome)

	require.Eventually(t, func() bool {
		snap := sess.Permissions()
		return snap.Confirmed && snap.Version == 1
	}, 2*time.Second, 10*time.Millisecond)

	b.setPerms(tn.ID, []string{"reports.view", "exports.run"})
	push <- []byte(`{"type":"permissions.updated","version":2}`)

	require.Eventually(t, func() bool {
		snap := sess.Permissions()
		return snap.Version == 2 && snap.Has("exports.run")
	}, 2*time.Second, 10*time.Millisecond)
}
