package authsync

import (
	"time"

	"github.com/sentinelhq/authsync/pkg/config"
)

// Config holds the connection and storage settings for a Session.
type Config struct {
	// Environment selects the default logger profile: "production" and
	// "staging" log JSON at info, anything else logs text at debug.
	Environment string `env:"AUTHSYNC_ENV" envDefault:"development"`

	// APIBaseURL is the backend origin, e.g. "https://api.example.com".
	APIBaseURL string `env:"AUTHSYNC_API_BASE_URL,required"`

	// TenantsPath and PermissionsPath are joined onto APIBaseURL.
	TenantsPath     string `env:"AUTHSYNC_TENANTS_PATH" envDefault:"/api/tenants"`
	PermissionsPath string `env:"AUTHSYNC_PERMISSIONS_PATH" envDefault:"/api/permissions"`

	// RealtimeURL is the websocket endpoint for push invalidation. Empty
	// disables realtime; the session degrades to interval polling.
	RealtimeURL string `env:"AUTHSYNC_REALTIME_URL"`

	// RealtimeTokenPath is joined onto APIBaseURL and used only when the
	// realtime endpoint is cross-origin relative to the API.
	RealtimeTokenPath string `env:"AUTHSYNC_REALTIME_TOKEN_PATH" envDefault:"/auth/realtime-token"`

	// DataDir holds the permission cache, the tenant selection and the
	// session credential marker.
	DataDir string `env:"AUTHSYNC_DATA_DIR" envDefault:".authsync"`

	// PollInterval is the background permission refresh interval.
	PollInterval time.Duration `env:"AUTHSYNC_POLL_INTERVAL" envDefault:"2m"`

	// CacheTTL bounds how long a cached permission set may seed the
	// optimistic startup paint.
	CacheTTL time.Duration `env:"AUTHSYNC_CACHE_TTL" envDefault:"24h"`
}

// LoadConfig loads the session configuration from the environment,
// reading a .env file when present.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
