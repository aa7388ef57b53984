package urlstate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/urlstate-go/urlstate/pkg/protocol"
	"github.com/urlstate-go/urlstate/pkg/querysync"
	"github.com/urlstate-go/urlstate/pkg/server"
	"github.com/urlstate-go/urlstate/pkg/sharelink"
)

// SessionWiring runs once for every connected session, after the
// handshake and before the first URL decode. This is where the
// application creates its per-session stores and attaches them:
//
//	app.OnSession(func(sess *urlstate.Session, mgr *urlstate.Manager) {
//	    globe := urlstate.NewStore("globe")
//	    urlstate.Define(globe, "tags", []string{"Weather"})
//	    mgr.Attach(globe, urlstate.SyncConfig{Fields: []urlstate.FieldSpec{
//	        urlstate.Field[[]string]("tags"),
//	    }})
//	})
type SessionWiring func(sess *Session, mgr *Manager)

// App composes the transport server, per-session synchronization,
// share links, and static files into one http.Handler.
type App struct {
	server *server.Server
	shares sharelink.Store
	router chi.Router

	// wire is the application's session callback. Registered via
	// OnSession before serving; read without a lock on the handshake
	// path, same contract as server.OnSession.
	wire SessionWiring

	// Static file serving
	staticDir    string
	staticPrefix string
	staticFS     http.FileSystem

	config Config
	logger *slog.Logger
}

// New creates a new urlstate application with the given configuration.
func New(cfg Config) *App {
	// Apply defaults
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = DefaultStaticConfig().Prefix
	}
	if cfg.Share.Prefix == "" {
		cfg.Share.Prefix = DefaultShareConfig().Prefix
	}
	if cfg.Share.MaxLinks == 0 {
		cfg.Share.MaxLinks = DefaultShareConfig().MaxLinks
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := server.New(buildServerConfig(cfg))
	srv.SetLogger(logger)

	app := &App{
		server:       srv,
		staticDir:    cfg.Static.Dir,
		staticPrefix: cfg.Static.Prefix,
		config:       cfg,
		logger:       logger,
	}

	srv.OnSession(app.wireSession)

	if cfg.Static.Dir != "" {
		app.staticFS = http.Dir(cfg.Static.Dir)
	}
	if cfg.Share.Enabled {
		app.shares = cfg.Share.Store
		if app.shares == nil {
			app.shares = sharelink.NewMemoryStore(cfg.Share.MaxLinks)
		}
	}

	app.router = app.buildRouter()
	return app
}

// buildRouter assembles the app's route tree. The session endpoints
// live under /_sync so the catch-all static handler never shadows
// them; chi matches the more specific subtree first.
func (a *App) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Mount("/_sync", a.server.Handler())

	if a.shares != nil {
		r.Mount(a.config.Share.Prefix, sharelink.RoutesWithConfig(a.shares, &sharelink.Config{
			BaseURL: a.config.Share.Prefix,
		}))
	}

	if a.staticFS != nil {
		r.NotFound(a.serveStatic)
	}

	return r
}

// =============================================================================
// Session Wiring
// =============================================================================

// wireSession runs on the handshake path for every new session. It
// builds the session's synchronization manager, hands both to the
// application callback, and then routes incoming field edits to the
// binding of the addressed store.
func (a *App) wireSession(sess *server.Session) {
	opts := []querysync.ManagerOption{
		querysync.WithLogger(sess.Logger()),
	}
	if len(a.config.Presets) > 0 {
		opts = append(opts, querysync.WithOverrides(a.config.Presets))
	}
	if a.config.Observer != nil {
		opts = append(opts, querysync.WithObserver(a.config.Observer))
	}
	mgr := querysync.NewManager(sess, opts...)

	if a.wire != nil {
		a.wire(sess, mgr)
	}

	sess.OnSet(func(m *protocol.SetMsg) error {
		b, ok := mgr.Binding(m.Store)
		if !ok {
			return &UnknownStoreError{Store: m.Store}
		}
		return b.ApplyField(m.Field, m.Value)
	})
}

// OnSession registers the application's session callback. It must be
// called before the app starts serving.
func (a *App) OnSession(fn SessionWiring) {
	a.wire = fn
}

// UnknownStoreError reports a field edit addressed to a store that has
// no synchronization binding in the session.
type UnknownStoreError struct {
	Store string
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("no synced store %q", e.Store)
}

// ErrorCode maps the error to its wire code.
func (e *UnknownStoreError) ErrorCode() protocol.ErrorCode {
	return protocol.CodeUnknownStore
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Handler returns the app as an http.Handler for embedding in an
// external mux or server.
func (a *App) Handler() http.Handler {
	return a.router
}

// =============================================================================
// Accessors
// =============================================================================

// Server returns the underlying transport server.
func (a *App) Server() *server.Server {
	return a.server
}

// Shares returns the share-link store, or nil when share links are
// disabled.
func (a *App) Shares() sharelink.Store {
	return a.shares
}

// Config returns the app configuration.
func (a *App) Config() Config {
	return a.config
}

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// =============================================================================
// Lifecycle
// =============================================================================

// Run starts the server and blocks until shutdown.
//
//	app := urlstate.New(cfg)
//	app.OnSession(wire)
//	app.Run()
func (a *App) Run() error {
	srvCfg := a.server.Config()
	httpServer := &http.Server{
		Addr:              srvCfg.Address,
		Handler:           a,
		ReadHeaderTimeout: srvCfg.ReadHeaderTimeout,
	}

	if a.shares != nil && a.config.Share.MaxAge > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go a.sweepShares(stop)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "address", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		a.logger.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()

		// Sessions first: hijacked WebSocket connections are not
		// drained by http.Server.Shutdown.
		a.server.Sessions().Shutdown()

		if err := httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("shutdown error", "error", err)
			return err
		}
		a.logger.Info("server shutdown complete")
		return nil
	}
}

// Shutdown releases session resources. Applications embedding the app
// in their own http.Server should call this during teardown; Run does
// it automatically.
func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// sweepShares periodically removes share links older than
// Share.MaxAge.
func (a *App) sweepShares(stop <-chan struct{}) {
	interval := a.config.Share.MaxAge / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := a.shares.Cleanup(context.Background(), a.config.Share.MaxAge); err != nil {
				a.logger.Warn("share link cleanup failed", "error", err)
			}
		}
	}
}
