package urlstate

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// =============================================================================
// Static File Serving
// =============================================================================

// serveStatic handles requests that matched no registered route. It
// serves files from the static directory. Extensionless paths that hit
// no file fall back to index.html: deep links into synchronized views
// (/globe?tags=Weather) load the app shell, whose client script
// restores the view from the query string. Asset misses stay 404s.
func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) {
	// Only serve GET and HEAD requests for static files
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := a.staticRelPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if a.tryServeFile(w, r, rel) {
		return
	}
	if path.Ext(rel) == "" && a.tryServeFile(w, r, "index.html") {
		return
	}

	http.NotFound(w, r)
}

// tryServeFile writes the named file if it exists and is a regular
// file. Reports whether a response was written.
func (a *App) tryServeFile(w http.ResponseWriter, r *http.Request, rel string) bool {
	f, err := a.staticFS.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	a.applyCacheHeaders(w, rel)
	for key, value := range a.config.Static.Headers {
		w.Header().Set(key, value)
	}

	http.ServeContent(w, r, rel, info.ModTime(), f)
	return true
}

// staticRelPath returns a sanitized relative path for a static file
// request. It rejects traversal and absolute-path tricks so static
// serving cannot escape the configured directory. An empty relative
// path with ok=true means the root of the prefix (the app shell).
func (a *App) staticRelPath(urlPath string) (string, bool) {
	if a.staticFS == nil || a.staticDir == "" {
		return "", false
	}

	rel, ok := a.stripStaticPrefix(urlPath)
	if !ok {
		return "", false
	}
	if rel == "" {
		return "", true
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "/static//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away"
	// traversal attempts and changing the meaning of the request path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	// Defense-in-depth: reject OS-absolute/volume paths after slash
	// conversion.
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

// stripStaticPrefix removes the static prefix from a URL path. The
// second result is false when the path lies outside the prefix.
func (a *App) stripStaticPrefix(urlPath string) (string, bool) {
	prefix := a.staticPrefix
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	if prefix == "/" {
		return strings.TrimPrefix(urlPath, "/"), true
	}

	if urlPath+"/" == prefix {
		return "", true
	}
	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(urlPath, prefix), true
}

// applyCacheHeaders applies cache control headers based on the
// configuration.
func (a *App) applyCacheHeaders(w http.ResponseWriter, filePath string) {
	switch a.config.Static.CacheControl {
	case CacheControlNone:
		// No caching - useful for development
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

	case CacheControlProduction:
		if isFingerprinted(filePath) {
			// Fingerprinted files are immutable - cache for 1 year
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			// Other files - short cache with revalidation
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted checks if a file path appears to be fingerprinted.
// Fingerprinted files have a hash in their name, e.g., "app.a1b2c3d4.css"
func isFingerprinted(filePath string) bool {
	base := path.Base(filePath)

	// Split by dots: ["app", "a1b2c3d4", "css"]
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return false
	}

	// The second-to-last part (before the extension) must look like a
	// hash: 8+ hex characters.
	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}

	return true
}
