package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urlstate-go/urlstate/pkg/nav"
	"github.com/urlstate-go/urlstate/pkg/protocol"
)

// Session represents a single WebSocket connection and its URL state.
//
// A Session implements nav.Navigator: it mirrors the browser's query
// string server-side, and every mutation of the mirror is streamed back
// to the browser as a URL patch. The mirror is seeded from the client
// handshake, so stores attached to this navigator hydrate from the
// address bar the user actually sees.
type Session struct {
	// Identity
	ID        string
	CreatedAt time.Time

	// Connection. All data frames are written by the write loop; the
	// handshake reply and close control message are the only writes
	// outside it, and both happen while no loop is running (gorilla
	// permits WriteControl concurrently with a writer).
	conn   *websocket.Conn
	closed atomic.Bool

	lastActive atomic.Int64 // Unix nanoseconds

	// seq numbers server → client URL patches. The client drops any
	// patch whose seq is not newer than the last one it applied, so a
	// reordered or dropped frame heals on the next snapshot.
	seq atomic.Uint64

	// Query mirror: the server's copy of the browser location.
	mirrorMu sync.Mutex
	path     string
	mirror   url.Values

	// ready closes when the client reports navigation settled.
	ready     chan struct{}
	readyOnce sync.Once

	sendCh chan *protocol.Frame
	done   chan struct{}

	// onSet dispatches field edits. Registered via OnSet before Start;
	// never mutated afterwards.
	onSet func(*protocol.SetMsg) error

	config *SessionConfig
	logger *slog.Logger

	// Metrics
	framesSent atomic.Uint64
	framesRecv atomic.Uint64
	bytesSent  atomic.Uint64
	bytesRecv  atomic.Uint64
}

// generateSessionID generates a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// SECURITY: fatal on entropy failure, weak IDs are dangerous.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession creates a session whose query mirror is seeded from the
// client handshake.
func newSession(conn *websocket.Conn, hello *protocol.ClientHello, config *SessionConfig, logger *slog.Logger) *Session {
	now := time.Now()
	id := generateSessionID()

	s := &Session{
		ID:        id,
		CreatedAt: now,
		conn:      conn,
		path:      hello.Path,
		mirror:    nav.ParseQuery(hello.Query),
		ready:     make(chan struct{}),
		sendCh:    make(chan *protocol.Frame, config.MaxSendQueue),
		done:      make(chan struct{}),
		config:    config,
		logger:    logger.With("session_id", id),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// OnSet registers the handler for incoming field edits. It must be
// called before Start, typically from the server's OnSession callback.
// The handler runs on the session's read loop; returning an error sends
// a non-fatal error frame back to the client.
func (s *Session) OnSet(fn func(*protocol.SetMsg) error) {
	s.onSet = fn
}

// =============================================================================
// nav.Navigator
// =============================================================================

// Query returns a copy of the current query mirror.
func (s *Session) Query() url.Values {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	return nav.CloneQuery(s.mirror)
}

// PushQuery updates the mirror and streams a url_push patch so the
// browser adds a new history entry.
func (s *Session) PushQuery(q url.Values) {
	s.applyQuery(q, protocol.URLPush)
}

// ReplaceQuery updates the mirror and streams a url_replace patch so the
// browser swaps the current history entry in place.
func (s *Session) ReplaceQuery(q url.Values) {
	s.applyQuery(q, protocol.URLReplace)
}

// Ready returns a channel that closes once the client has reported
// navigation settled.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) applyQuery(q url.Values, op protocol.URLOp) {
	clone := nav.CloneQuery(q)

	s.mirrorMu.Lock()
	s.mirror = clone
	encoded := nav.EncodeQuery(clone)
	s.mirrorMu.Unlock()

	seq := s.seq.Add(1)
	var patch *protocol.URLPatch
	if op == protocol.URLPush {
		patch = protocol.NewURLPushPatch(seq, encoded)
	} else {
		patch = protocol.NewURLReplacePatch(seq, encoded)
	}

	s.enqueue(protocol.NewFrame(protocol.FrameURL, protocol.EncodeURLPatch(patch)))

	s.logger.Debug("url patch queued",
		"seq", seq, "op", op.String(), "query", encoded)
}

// =============================================================================
// Session internals
// =============================================================================

// Path returns the path the mirror currently sits on.
func (s *Session) Path() string {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	return s.path
}

// markReady closes the ready channel. Repeated navready messages are
// harmless; the channel closes at most once.
func (s *Session) markReady() {
	s.readyOnce.Do(func() {
		close(s.ready)
		s.logger.Debug("navigation ready", "path", s.Path())
	})
}

// refreshMirror replaces the mirror after a back/forward traversal.
// Hydration is one-shot, so the traversal never re-runs inbound sync;
// the mirror just has to stay truthful for the next outbound diff.
func (s *Session) refreshMirror(path, query string) {
	s.mirrorMu.Lock()
	s.path = path
	s.mirror = nav.ParseQuery(query)
	s.mirrorMu.Unlock()

	s.logger.Debug("history traversal", "path", path, "query", query)
}

// enqueue hands a frame to the write loop without blocking. When the
// queue is full the frame is dropped with a warning: every frame the
// session sends is a snapshot or heartbeat, so a later frame supersedes
// whatever was lost.
func (s *Session) enqueue(f *protocol.Frame) {
	if s.closed.Load() {
		return
	}
	select {
	case s.sendCh <- f:
	case <-s.done:
	default:
		s.logger.Warn("send queue full, dropping frame", "type", f.Type.String())
	}
}

// sendError enqueues a non-fatal error frame.
func (s *Session) sendError(code protocol.ErrorCode, message string) {
	em := protocol.NewError(code, message)
	s.enqueue(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)))
}

// touch updates the last-activity timestamp.
func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last client activity.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close gracefully closes the session.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.closeInternal()
}

func (s *Session) closeInternal() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	}

	s.logger.Info("session closed",
		"frames_sent", s.framesSent.Load(),
		"frames_recv", s.framesRecv.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}

// IsClosed returns whether the session is closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that's closed when the session is done.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// Config returns the session configuration.
func (s *Session) Config() *SessionConfig {
	return s.config
}

// SessionStats is a point-in-time snapshot of session counters.
type SessionStats struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time
	Seq        uint64
	FramesSent uint64
	FramesRecv uint64
	BytesSent  uint64
	BytesRecv  uint64
}

// Stats returns session statistics.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
		Seq:        s.seq.Load(),
		FramesSent: s.framesSent.Load(),
		FramesRecv: s.framesRecv.Load(),
		BytesSent:  s.bytesSent.Load(),
		BytesRecv:  s.bytesRecv.Load(),
	}
}
