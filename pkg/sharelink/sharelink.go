package sharelink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urlstate-go/urlstate/pkg/nav"
)

// ErrNotFound is returned when a share code doesn't exist.
var ErrNotFound = errors.New("sharelink: code not found")

// ErrStoreFull is returned when the store is at capacity.
var ErrStoreFull = errors.New("sharelink: store full")

// Store is the interface for share link storage backends.
// Implement this interface to use S3, Redis, or other storage.
type Store interface {
	// Save stores the path and query under a new short code. Saving the
	// same location twice may return the same code.
	Save(ctx context.Context, path, query string) (code string, err error)

	// Load retrieves a stored link by code.
	Load(ctx context.Context, code string) (Link, error)

	// Cleanup removes links older than maxAge.
	// Call this periodically (e.g., every hour).
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// Link is a stored view location.
type Link struct {
	// Code is the short identifier for this link.
	Code string

	// Path is the application path of the shared view.
	Path string

	// Query is the query string of the shared view, without the "?".
	Query string

	// CreatedAt is when the link was saved.
	CreatedAt time.Time
}

// Target returns the relative URL the link redirects to.
func (l Link) Target() string {
	if l.Query == "" {
		return l.Path
	}
	return l.Path + "?" + l.Query
}

// Config holds configuration for the share link routes.
type Config struct {
	// MaxBodySize is the maximum accepted request body in bytes.
	// Default: 64KB, far above any realistic query string.
	MaxBodySize int64

	// BaseURL is the prefix of returned share URLs, without a trailing
	// slash. Default: "/s". Set an absolute URL to hand out full links.
	BaseURL string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxBodySize: 64 * 1024,
		BaseURL:     "/s",
	}
}

// Routes returns a chi.Router with the share endpoints:
//
//	POST /        create a link
//	GET  /{code}  redirect to the stored location
//
// Mount it under the path named by Config.BaseURL:
//
//	r.Mount("/s", sharelink.Routes(store))
func Routes(store Store) chi.Router {
	return RoutesWithConfig(store, DefaultConfig())
}

// RoutesWithConfig returns share routes with custom configuration.
func RoutesWithConfig(store Store, config *Config) chi.Router {
	if config == nil {
		config = DefaultConfig()
	}
	maxBody := config.MaxBodySize
	if maxBody <= 0 {
		maxBody = 64 * 1024
	}
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "/s"
	}

	r := chi.NewRouter()
	r.Post("/", createHandler(store, maxBody, baseURL))
	r.Get("/{code}", resolveHandler(store))
	return r
}

type createRequest struct {
	Path  string `json:"path"`
	Query string `json:"query"`
}

type createResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

func createHandler(store Store, maxBody int64, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		// SECURITY: the code redirects wherever Path points, so only
		// same-origin paths may be stored. "//host" and "/\host" are
		// protocol-relative escapes.
		if !validSharePath(req.Path) {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}

		// Normalize the query the way the engine writes it, so the share
		// target matches what the address bar would show.
		query := nav.EncodeQuery(nav.ParseQuery(req.Query))

		code, err := store.Save(r.Context(), req.Path, query)
		if err != nil {
			if errors.Is(err, ErrStoreFull) {
				http.Error(w, "Share store full", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "Save failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createResponse{
			Code: code,
			URL:  baseURL + "/" + code,
		})
	}
}

func resolveHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		link, err := store.Load(r.Context(), code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "Unknown share code", http.StatusNotFound)
				return
			}
			http.Error(w, "Load failed", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, link.Target(), http.StatusFound)
	}
}

// validSharePath accepts only same-origin absolute paths.
func validSharePath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	return true
}
