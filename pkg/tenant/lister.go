package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// HTTPLister lists accessible tenants from a GET endpoint returning a JSON
// array of tenants.
type HTTPLister struct {
	client   *http.Client
	endpoint string
}

// NewHTTPLister creates a lister for the given endpoint. A nil client means
// http.DefaultClient.
func NewHTTPLister(client *http.Client, endpoint string) *HTTPLister {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLister{client: client, endpoint: endpoint}
}

// ListTenants implements Lister. Credential rejections are reported as
// ErrUnauthenticated; everything else transport-related as ErrListFailed.
func (l *HTTPLister) ListTenants(ctx context.Context) ([]Tenant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return nil, errors.Join(ErrListFailed, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrListFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	case resp.StatusCode == http.StatusOK:
		var tenants []Tenant
		if err := json.NewDecoder(resp.Body).Decode(&tenants); err != nil {
			return nil, errors.Join(ErrListFailed, err)
		}
		return tenants, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if isAuthFailureMessage(string(body)) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Join(ErrListFailed, errors.New(resp.Status))
	}
}

// isAuthFailureMessage applies message heuristics for servers that report
// credential problems with a non-401 status.
func isAuthFailureMessage(body string) bool {
	body = strings.ToLower(body)
	for _, marker := range []string{"token expired", "invalid token", "session expired", "unauthenticated"} {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
