package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urlstate-go/urlstate/pkg/protocol"
)

// SessionManager manages all active sessions. It handles session
// creation, lookup, idle cleanup, and lifecycle callbacks.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	config *SessionConfig

	// maxSessions caps concurrent sessions; 0 means no limit.
	maxSessions int

	// Cleanup loop
	cleanupInterval time.Duration
	done            chan struct{}
	cleanupDone     chan struct{}
	stopOnce        sync.Once

	// Metrics
	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64

	// Callbacks
	cbMu            sync.Mutex
	onSessionCreate func(*Session)
	onSessionClose  func(*Session)

	logger *slog.Logger
}

// NewSessionManager creates a SessionManager and starts its cleanup
// loop.
func NewSessionManager(config *SessionConfig, maxSessions int, cleanupInterval time.Duration, logger *slog.Logger) *SessionManager {
	if config == nil {
		config = DefaultSessionConfig()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	sm := &SessionManager{
		sessions:        make(map[string]*Session),
		config:          config,
		maxSessions:     maxSessions,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
		logger:          logger.With("component", "session_manager"),
	}

	go sm.cleanupLoop()

	return sm
}

// Create builds a new session for the given connection, seeded from the
// client handshake, and registers it.
func (sm *SessionManager) Create(conn *websocket.Conn, hello *protocol.ClientHello) (*Session, error) {
	sm.mu.Lock()
	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		sm.mu.Unlock()
		return nil, ErrMaxSessionsReached
	}

	session := newSession(conn, hello, sm.config, sm.logger)
	sm.sessions[session.ID] = session
	count := len(sm.sessions)
	sm.mu.Unlock()

	sm.totalCreated.Add(1)

	sm.cbMu.Lock()
	onCreate := sm.onSessionCreate
	sm.cbMu.Unlock()
	if onCreate != nil {
		onCreate(session)
	}

	sm.logger.Info("session created",
		"session_id", session.ID,
		"path", session.Path(),
		"active", count)

	return session, nil
}

// Get returns the session with the given ID, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Close closes and removes the session with the given ID.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	session, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return
	}

	session.Close()
	sm.totalClosed.Add(1)

	sm.cbMu.Lock()
	onClose := sm.onSessionClose
	sm.cbMu.Unlock()
	if onClose != nil {
		onClose(session)
	}
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for every active session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// SetOnSessionCreate sets a callback invoked after a session registers.
func (sm *SessionManager) SetOnSessionCreate(fn func(*Session)) {
	sm.cbMu.Lock()
	defer sm.cbMu.Unlock()
	sm.onSessionCreate = fn
}

// SetOnSessionClose sets a callback invoked after a session is removed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.cbMu.Lock()
	defer sm.cbMu.Unlock()
	sm.onSessionClose = fn
}

// cleanupLoop periodically removes idle and closed sessions.
func (sm *SessionManager) cleanupLoop() {
	defer close(sm.cleanupDone)

	ticker := time.NewTicker(sm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired()
		case <-sm.done:
			return
		}
	}
}

// cleanupExpired closes sessions idle past IdleTimeout and reaps
// sessions that closed themselves (read error, client close).
func (sm *SessionManager) cleanupExpired() {
	cutoff := time.Now().Add(-sm.config.IdleTimeout)

	var expired []string
	sm.mu.RLock()
	for id, s := range sm.sessions {
		if s.IsClosed() || s.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		sm.logger.Info("closing expired session", "session_id", id)
		sm.Close(id)
	}
}

// Shutdown closes all sessions and stops the cleanup loop. It blocks
// until the cleanup goroutine has exited.
func (sm *SessionManager) Shutdown() {
	sm.stopOnce.Do(func() {
		close(sm.done)
	})
	<-sm.cleanupDone

	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		sm.totalClosed.Add(1)
	}

	sm.logger.Info("session manager shut down",
		"closed", len(sessions))
}

// ManagerStats is a point-in-time snapshot of manager counters.
type ManagerStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
}

// Stats returns manager statistics.
func (sm *SessionManager) Stats() ManagerStats {
	return ManagerStats{
		Active:       sm.Count(),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}
