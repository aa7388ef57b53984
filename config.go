package urlstate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/urlstate-go/urlstate/pkg/server"
	"github.com/urlstate-go/urlstate/pkg/sharelink"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for configuring a urlstate app.
type Config struct {
	// Address is the listen address for Run (e.g., ":8080").
	// Default: ":8080".
	Address string

	// Session configures per-session transport behavior
	// (timeouts, message limits, send queue depth).
	Session SessionConfig

	// MaxSessions is the maximum number of concurrent sessions.
	// 0 means no limit. Default: 0.
	MaxSessions int

	// Security configures origin checking for WebSocket connections.
	Security SecurityConfig

	// Static configures static file serving.
	Static StaticConfig

	// Share configures short share links for synchronized view URLs.
	Share ShareConfig

	// Presets override store field defaults per session before the
	// first URL decode, keyed by store ID and field name. A preset
	// behaves exactly as if the field's default had been declared with
	// the preset value: it does not survive in the query string unless
	// the user changes the field away from it.
	Presets Overrides

	// Observer receives synchronization notifications for every
	// session. Use middleware.Prometheus(), middleware.OpenTelemetry(),
	// or any custom Observer; combine several with MultiObserver.
	Observer Observer

	// DevMode disables origin checking so browsers served from another
	// port (e.g. a frontend dev server) can connect.
	// SECURITY: NEVER use in production.
	DevMode bool

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// SecurityConfig configures security features.
type SecurityConfig struct {
	// AllowedOrigins lists origins allowed for WebSocket connections.
	// If empty and AllowSameOrigin is true, only same-origin requests
	// are allowed.
	// Example: []string{"https://myapp.com", "https://www.myapp.com"}
	AllowedOrigins []string

	// AllowSameOrigin enables automatic same-origin validation.
	// When true and AllowedOrigins is empty, validates that the Origin
	// header matches the request Host header.
	// Default: true.
	AllowSameOrigin bool
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files (e.g., "public").
	// Files in this directory are served at the URL prefix.
	Dir string

	// Prefix is the URL path prefix for static files (e.g., "/").
	// A file at public/styles.css with Prefix="/" is served at /styles.css.
	// Default: "/".
	Prefix string

	// CacheControl determines caching behavior for static files.
	// Default: CacheControlNone (no caching headers).
	CacheControl CacheControlStrategy

	// Headers are custom headers to add to all static file responses.
	Headers map[string]string
}

// ShareConfig configures short share links. When enabled, the app
// serves POST {Prefix} to mint a code for a path+query pair and
// GET {Prefix}/{code} to redirect to the stored location.
type ShareConfig struct {
	// Enabled turns the share-link endpoints on.
	Enabled bool

	// Prefix is the URL path prefix for share links (e.g., "/s").
	// Default: "/s".
	Prefix string

	// MaxLinks is the capacity of the default in-memory store.
	// Default: 10000.
	MaxLinks int

	// MaxAge expires links older than this. When set, Run sweeps
	// expired links periodically. 0 keeps links until the store
	// itself reclaims them.
	MaxAge time.Duration

	// Store overrides the link storage backend. If nil, an in-memory
	// store bounded by MaxLinks is used.
	Store sharelink.Store
}

// CacheControlStrategy determines caching behavior for static files.
type CacheControlStrategy int

const (
	// CacheControlNone adds no caching headers.
	// Use in development for instant updates.
	CacheControlNone CacheControlStrategy = iota

	// CacheControlProduction uses appropriate caching:
	// - Fingerprinted files (*.abc123.css): immutable, 1 year max-age
	// - Other files: short cache with revalidation
	CacheControlProduction
)

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address: ":8080",
		Security: SecurityConfig{
			AllowSameOrigin: true,
		},
		Static:  DefaultStaticConfig(),
		Share:   DefaultShareConfig(),
		DevMode: false,
	}
}

// DefaultStaticConfig returns a StaticConfig with sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Prefix:       "/",
		CacheControl: CacheControlNone,
	}
}

// DefaultShareConfig returns a ShareConfig with sensible defaults.
// Share links stay disabled until Enabled is set.
func DefaultShareConfig() ShareConfig {
	return ShareConfig{
		Prefix:   "/s",
		MaxLinks: 10000,
	}
}

// =============================================================================
// Config to Server Config Translation
// =============================================================================

// buildServerConfig converts the user-friendly urlstate.Config to the
// internal server.Config.
func buildServerConfig(cfg Config) *server.Config {
	serverCfg := server.DefaultConfig()

	if cfg.Address != "" {
		serverCfg.Address = cfg.Address
	}
	sess := cfg.Session
	serverCfg.Session = &sess
	serverCfg.MaxSessions = cfg.MaxSessions

	// Origin policy: explicit allowlist wins, then same-origin, then
	// whatever the server default is. DevMode overrides them all.
	if len(cfg.Security.AllowedOrigins) > 0 {
		origins := make(map[string]bool)
		for _, o := range cfg.Security.AllowedOrigins {
			origins[o] = true
		}
		serverCfg.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // No origin header (same-origin or non-browser)
			}
			return origins[origin]
		}
	} else if cfg.Security.AllowSameOrigin {
		serverCfg.CheckOrigin = server.SameOriginCheck
	}

	if cfg.DevMode {
		serverCfg.CheckOrigin = func(*http.Request) bool { return true }
	}

	return serverCfg
}
