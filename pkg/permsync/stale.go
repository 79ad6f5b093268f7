package permsync

import (
	"net/http"
	"strconv"
)

// DefaultVersionHeader is the response header carrying the server's current
// permission version.
const DefaultVersionHeader = "X-Permissions-Version"

// Syncer is the part of the engine the stale detector needs.
type Syncer interface {
	// MarkStale flags the held permission set as possibly out of date.
	MarkStale()

	// ConfirmedVersion returns the held version and whether it is confirmed.
	ConfirmedVersion() (int64, bool)
}

// StaleDetector is an http.RoundTripper for the application's API client.
// It watches every response for evidence that the cached permission set is
// out of date: a version marker that disagrees with the engine's confirmed
// version, or a 403 Forbidden from a protected call. Either raises the
// engine's stale signal; the response itself passes through untouched.
//
// Install it on the API client only, never on the engine's own HTTP client,
// or the sync response's version header would re-trigger the sync.
type StaleDetector struct {
	next   http.RoundTripper
	syncer Syncer
	header string
}

// NewStaleDetector wraps next (nil means http.DefaultTransport).
func NewStaleDetector(next http.RoundTripper, syncer Syncer) *StaleDetector {
	return &StaleDetector{next: next, syncer: syncer, header: DefaultVersionHeader}
}

// RoundTrip implements http.RoundTripper.
func (d *StaleDetector) RoundTrip(req *http.Request) (*http.Response, error) {
	next := d.next
	if next == nil {
		next = http.DefaultTransport
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusForbidden {
		d.syncer.MarkStale()
		return resp, nil
	}

	if h := resp.Header.Get(d.header); h != "" {
		if v, perr := strconv.ParseInt(h, 10, 64); perr == nil {
			if held, confirmed := d.syncer.ConfirmedVersion(); confirmed && v != held {
				d.syncer.MarkStale()
			}
		}
	}
	return resp, nil
}
