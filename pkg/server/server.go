package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/urlstate-go/urlstate/pkg/protocol"
)

// Server is the HTTP/WebSocket server that hosts live sessions.
type Server struct {
	config   *Config
	sessions *SessionManager
	upgrader websocket.Upgrader
	router   chi.Router

	// onSession wires a freshly handshaken session to the application:
	// attach stores, register the set handler. It runs before the
	// session loops start, so no client message can race the wiring.
	onSession func(*Session)

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with the given configuration. A nil config
// uses DefaultConfig; zero-valued fields are filled with defaults.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.fillDefaults()
	}

	logger := slog.Default().With("component", "server")

	s := &Server{
		config:   config,
		sessions: NewSessionManager(config.Session, config.MaxSessions, config.CleanupInterval, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}

	r := chi.NewRouter()
	s.Mount(r)
	s.router = r

	return s
}

// OnSession registers the application callback invoked for every new
// session after its handshake completes and before its loops start.
// This is where stores attach to the session's navigator.
func (s *Server) OnSession(fn func(*Session)) {
	s.onSession = fn
}

// Handler returns an http.Handler serving the session endpoints:
//
//	GET /ws          WebSocket upgrade
//	GET /client.js   embedded thin client
//
// Mount it wherever the host application wants, typically under a
// prefix like /_sync.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Mount registers the session endpoints on an external chi router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/ws", s.HandleWebSocket)
	r.Get("/client.js", s.serveClientJS)
	r.Head("/client.js", s.serveClientJS)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HandleWebSocket handles WebSocket upgrade and the session handshake.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(s.config.Session.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.Session.HandshakeTimeout))

	// The first message must be a hello frame.
	_, msg, err := conn.ReadMessage()
	if err != nil {
		s.logger.Error("handshake read failed", "error", err)
		conn.Close()
		return
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil || frame.Type != protocol.FrameHello {
		s.sendHandshakeError(conn, protocol.HandshakeInvalidFormat)
		conn.Close()
		return
	}

	hello, err := protocol.DecodeClientHello(frame.Payload)
	if err != nil {
		s.sendHandshakeError(conn, protocol.HandshakeInvalidFormat)
		conn.Close()
		return
	}

	if hello.Version.Major != protocol.CurrentVersion.Major {
		s.logger.Warn("protocol version mismatch",
			"client", hello.Version, "server", protocol.CurrentVersion)
		s.sendHandshakeError(conn, protocol.HandshakeVersionMismatch)
		conn.Close()
		return
	}

	// Sessions die with their connection; a resume token from before a
	// drop always starts a fresh session. The hello reply carries the
	// new ID, and the client re-runs its ready handshake against it.
	if hello.SessionID != "" {
		s.logger.Info("stale session token, starting fresh",
			"old_session_id", hello.SessionID)
	}

	session, err := s.sessions.Create(conn, hello)
	if err != nil {
		if err == ErrMaxSessionsReached {
			s.sendHandshakeError(conn, protocol.HandshakeServerBusy)
		} else {
			s.sendHandshakeError(conn, protocol.HandshakeInternalError)
		}
		conn.Close()
		return
	}

	// Application wiring happens before the loops start: the read loop
	// cannot deliver navready until every store is attached.
	if s.onSession != nil {
		s.onSession(session)
	}

	s.sendServerHello(conn, session)

	session.Start()
}

// sendHandshakeError sends a handshake error response.
func (s *Server) sendHandshakeError(conn *websocket.Conn, status protocol.HandshakeStatus) {
	hello := protocol.NewServerHelloError(status)
	frame := protocol.NewFrame(protocol.FrameHello, protocol.EncodeServerHello(hello))

	conn.SetWriteDeadline(time.Now().Add(s.config.Session.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// sendServerHello sends a successful handshake response.
func (s *Server) sendServerHello(conn *websocket.Conn, session *Session) {
	hello := protocol.NewServerHello(
		session.ID,
		uint32(session.seq.Load())+1,
		uint64(time.Now().UnixMilli()),
	)
	frame := protocol.NewFrame(protocol.FrameHello, protocol.EncodeServerHello(hello))

	conn.SetWriteDeadline(time.Now().Add(s.config.Session.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger rebases the server's loggers on the given logger. Sessions
// created afterwards derive from it.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger.With("component", "server")
	s.sessions.logger = logger.With("component", "session_manager")
}
