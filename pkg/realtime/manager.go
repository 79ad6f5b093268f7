package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/sentinelhq/authsync/pkg/logger"
)

// DialFunc opens a WebSocket connection from a prepared handshake config.
type DialFunc func(ctx context.Context, cfg *websocket.Config) (io.ReadWriteCloser, error)

func defaultDial(_ context.Context, cfg *websocket.Config) (io.ReadWriteCloser, error) {
	return websocket.DialConfig(cfg)
}

// Manager maintains one live push channel for the active tenant.
type Manager struct {
	endpoint      string
	origin        string
	sameOrigin    bool
	tokenEndpoint string
	client        *http.Client
	log           *slog.Logger
	backoff       Backoff
	dial          DialFunc
	onMessage     func([]byte)

	mu           sync.Mutex
	state        State
	conn         io.ReadWriteCloser
	tenantID     uuid.UUID
	token        string
	tokenFetched bool
	generation   uint64
	subs         map[int]func(State)
	nextSub      int
}

// New creates a manager for the given channel endpoint (ws:// or wss://)
// and application origin (http:// or https://).
func New(endpoint, origin string, opts ...Option) (*Manager, error) {
	endpointOrigin, err := normalizeOrigin(endpoint)
	if err != nil {
		return nil, errors.Join(ErrInvalidEndpoint, err)
	}
	appOrigin, err := normalizeOrigin(origin)
	if err != nil {
		return nil, errors.Join(ErrInvalidEndpoint, err)
	}

	m := &Manager{
		endpoint:   endpoint,
		origin:     origin,
		sameOrigin: endpointOrigin == appOrigin,
		client:     http.DefaultClient,
		log:        slog.Default(),
		backoff:    DefaultBackoff,
		dial:       defaultDial,
		subs:       make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SameOrigin reports whether the channel endpoint shares the application
// origin. Same-origin channels authenticate with session cookies and never
// call the token endpoint.
func (m *Manager) SameOrigin() bool { return m.sameOrigin }

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SubscribeState registers a callback for state changes.
// The returned function cancels the subscription.
func (m *Manager) SubscribeState(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notifyState(state State) {
	m.mu.Lock()
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// transition applies a state change when the generation is still current
// and the transition is legal. Returns the applied state, or false.
func (m *Manager) transition(gen uint64, to State) bool {
	m.mu.Lock()
	if m.generation != gen || !m.state.canTransition(to) {
		m.mu.Unlock()
		return false
	}
	m.state = to
	m.mu.Unlock()

	m.notifyState(to)
	return true
}

// Connect opens the channel. Calling it while connecting, connected or
// already reconnecting is a no-op. From failed it starts a fresh attempt
// with reset retry budget.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateConnected, StateReconnecting:
		m.mu.Unlock()
		return nil
	}
	m.generation++
	gen := m.generation
	m.state = StateConnecting
	m.mu.Unlock()
	m.notifyState(StateConnecting)

	return m.connectLoop(ctx, gen)
}

// Reconnect is the explicit recovery call required after the channel
// failed. It is idempotent while connecting or connected.
func (m *Manager) Reconnect(ctx context.Context) error {
	return m.Connect(ctx)
}

func (m *Manager) connectLoop(ctx context.Context, gen uint64) error {
	for attempt := 0; ; attempt++ {
		m.mu.Lock()
		live := m.generation == gen && (m.state == StateConnecting || m.state == StateReconnecting)
		m.mu.Unlock()
		if !live {
			return nil
		}

		err := m.dialOnce(ctx, gen)
		if err == nil {
			return nil
		}
		m.log.Warn("realtime connect attempt failed",
			logger.Component("realtime"),
			slog.Int("attempt", attempt+1),
			logger.Error(err))

		if attempt+1 >= m.backoff.MaxAttempts {
			m.transition(gen, StateFailed)
			return errors.Join(ErrRetriesExhausted, err)
		}
		m.transition(gen, StateReconnecting)

		select {
		case <-ctx.Done():
			m.transition(gen, StateDisconnected)
			return ctx.Err()
		case <-time.After(m.backoff.Delay(attempt)):
		}
	}
}

func (m *Manager) dialOnce(ctx context.Context, gen uint64) error {
	rawURL := m.endpoint
	if !m.sameOrigin {
		token, err := m.ensureToken(ctx)
		if err != nil {
			return err
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return errors.Join(ErrInvalidEndpoint, err)
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	cfg, err := websocket.NewConfig(rawURL, m.origin)
	if err != nil {
		return errors.Join(ErrInvalidEndpoint, err)
	}
	if m.sameOrigin && m.client.Jar != nil {
		if origin, err := url.Parse(httpOrigin(m.endpoint)); err == nil {
			for _, c := range m.client.Jar.Cookies(origin) {
				cfg.Header.Add("Cookie", c.String())
			}
		}
	}

	conn, err := m.dial(ctx, cfg)
	if err != nil {
		return errors.Join(ErrDialFailed, err)
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	m.conn = conn
	m.state = StateConnected
	m.mu.Unlock()
	m.notifyState(StateConnected)

	go m.readLoop(conn, gen)
	return nil
}

// ensureToken fetches a short-lived bearer token for cross-origin
// connections, at most once per tenant binding.
func (m *Manager) ensureToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.tokenFetched {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	tenantID := m.tenantID
	m.mu.Unlock()

	if m.tokenEndpoint == "" {
		return "", ErrTokenEndpointRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.tokenEndpoint, nil)
	if err != nil {
		return "", errors.Join(ErrTokenFetchFailed, err)
	}
	if tenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrTokenFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrTokenFetchFailed, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Join(ErrTokenFetchFailed, err)
	}

	m.mu.Lock()
	m.token = body.Token
	m.tokenFetched = true
	m.mu.Unlock()
	return body.Token, nil
}

func (m *Manager) readLoop(conn io.Reader, gen uint64) {
	buf := make([]byte, 32<<10)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			m.handleDrop(gen)
			return
		}
		if m.onMessage != nil && n > 0 {
			msg := make([]byte, n)
			copy(msg, buf[:n])
			m.onMessage(msg)
		}
	}
}

// handleDrop reacts to an unexpected connection loss by entering the
// bounded reconnect loop. Deliberate closes bump the generation first, so
// their read errors land here as no-ops.
func (m *Manager) handleDrop(gen uint64) {
	m.mu.Lock()
	if m.generation != gen || m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateReconnecting
	m.mu.Unlock()
	m.notifyState(StateReconnecting)

	m.log.Info("realtime channel dropped, reconnecting",
		logger.Component("realtime"))
	go func() {
		_ = m.connectLoop(context.Background(), gen)
	}()
}

// Close tears the channel down and clears the tenant-scoped token state.
func (m *Manager) Close() {
	m.mu.Lock()
	m.generation++
	conn := m.conn
	m.conn = nil
	m.token = ""
	m.tokenFetched = false
	changed := m.state != StateDisconnected
	m.state = StateDisconnected
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if changed {
		m.notifyState(StateDisconnected)
	}
}

// ResetForTenant closes the channel and rebinds it to a new tenant. The
// token-fetched flag is dropped with the channel, so the next connect
// fetches a token for the new tenant; the old token is never reused.
func (m *Manager) ResetForTenant(ctx context.Context, id uuid.UUID) {
	m.Close()
	m.mu.Lock()
	m.tenantID = id
	m.mu.Unlock()
}

// normalizeOrigin reduces a URL to scheme://host with ws/wss mapped to
// http/https and default ports stripped.
func normalizeOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := u.Scheme
	switch scheme {
	case "ws":
		scheme = "http"
	case "wss":
		scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, nil
}

// httpOrigin rewrites a ws(s) URL to its http(s) counterpart for cookie
// jar lookups.
func httpOrigin(endpoint string) string {
	origin, err := normalizeOrigin(endpoint)
	if err != nil {
		return endpoint
	}
	return origin
}
