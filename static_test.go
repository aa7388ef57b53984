package urlstate

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeStaticFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func newStaticApp(t *testing.T, static StaticConfig) *App {
	t.Helper()
	app := New(Config{
		Static: static,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { app.Server().Sessions().Shutdown() })
	return app
}

func TestStaticServing_PrefixHandling(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "app.js", "ok")

	app := newStaticApp(t, StaticConfig{
		Dir:    publicDir,
		Prefix: "/static",
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/static/app.js", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /static/app.js status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("GET /static/app.js body = %q, want %q", got, "ok")
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/other/app.js", nil)
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET /other/app.js status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStaticServing_MethodAndHeadHandling(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "app.js", "ok")

	app := newStaticApp(t, StaticConfig{Dir: publicDir})

	req := httptest.NewRequest(http.MethodPost, "http://example.com/app.js", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /app.js status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}

	req = httptest.NewRequest(http.MethodHead, "http://example.com/app.js", nil)
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("HEAD /app.js status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("HEAD /app.js body = %q, want empty", rr.Body.String())
	}
}

func TestStaticServing_AppShellFallback(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "index.html", "<html>shell</html>")
	writeStaticFile(t, publicDir, "app.css", "body{}")

	app := newStaticApp(t, StaticConfig{Dir: publicDir})

	// The root and deep links into views both load the shell; the
	// client script restores the view from the query string.
	for _, p := range []string{"/", "/globe", "/passes/next"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com"+p+"?tags=Weather", nil)
		rr := httptest.NewRecorder()
		app.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", p, rr.Code, http.StatusOK)
		}
		if got := rr.Body.String(); got != "<html>shell</html>" {
			t.Fatalf("GET %s body = %q, want the app shell", p, got)
		}
	}

	// Real files still win over the shell.
	req := httptest.NewRequest(http.MethodGet, "http://example.com/app.css", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "body{}" {
		t.Fatalf("GET /app.css = %d %q, want the file itself", rr.Code, rr.Body.String())
	}

	// Asset misses stay hard 404s, no shell masquerading as CSS.
	req = httptest.NewRequest(http.MethodGet, "http://example.com/missing.css", nil)
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET /missing.css status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStaticServing_NoShellWithoutIndex(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "app.js", "ok")

	app := newStaticApp(t, StaticConfig{Dir: publicDir})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/globe", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET /globe status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStaticServing_CacheControlHeaders(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "app.a1b2c3d4.css", "fingerprinted")
	writeStaticFile(t, publicDir, "app.css", "plain")

	app := newStaticApp(t, StaticConfig{
		Dir:          publicDir,
		CacheControl: CacheControlProduction,
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/app.a1b2c3d4.css", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GET /app.a1b2c3d4.css status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=31536000, immutable" {
		t.Fatalf("Cache-Control = %q, want immutable", got)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/app.css", nil)
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=3600, must-revalidate" {
		t.Fatalf("Cache-Control = %q, want revalidating", got)
	}
}

func TestStaticServing_CustomHeaders(t *testing.T) {
	publicDir := filepath.Join(t.TempDir(), "public")
	writeStaticFile(t, publicDir, "app.js", "ok")

	app := newStaticApp(t, StaticConfig{
		Dir: publicDir,
		Headers: map[string]string{
			"X-Frame-Options": "DENY",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/app.js", nil)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestIsFingerprinted(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"app.a1b2c3d4.css", true},
		{"assets/vendor.deadbeef01.js", true},
		{"app.css", false},
		{"app.v2.css", false},
		{"app.notahash.css", false},
		{"index.html", false},
	}
	for _, tc := range cases {
		if got := isFingerprinted(tc.path); got != tc.want {
			t.Errorf("isFingerprinted(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
