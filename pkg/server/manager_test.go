package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/urlstate-go/urlstate/pkg/protocol"
)

func testManager(t *testing.T, maxSessions int) *SessionManager {
	t.Helper()
	sm := NewSessionManager(DefaultSessionConfig(), maxSessions, time.Hour, slog.Default())
	t.Cleanup(sm.Shutdown)
	return sm
}

func TestManagerCreateAndGet(t *testing.T) {
	sm := testManager(t, 0)

	session, err := sm.Create(nil, protocol.NewClientHello("/globe", "tags=Weather"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := sm.Get(session.ID); got != session {
		t.Error("Get should return the created session")
	}
	if got := sm.Get("missing"); got != nil {
		t.Error("Get of unknown ID should return nil")
	}
	if sm.Count() != 1 {
		t.Errorf("count = %d, want 1", sm.Count())
	}
}

func TestManagerMaxSessions(t *testing.T) {
	sm := testManager(t, 1)

	if _, err := sm.Create(nil, protocol.NewClientHello("/", "")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := sm.Create(nil, protocol.NewClientHello("/", "")); err != ErrMaxSessionsReached {
		t.Errorf("second create: got %v, want ErrMaxSessionsReached", err)
	}
}

func TestManagerCloseRemovesSession(t *testing.T) {
	sm := testManager(t, 0)

	session, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Close(session.ID)

	if !session.IsClosed() {
		t.Error("session should be closed")
	}
	if sm.Count() != 0 {
		t.Errorf("count = %d, want 0", sm.Count())
	}

	// Closing an unknown ID is a no-op.
	sm.Close("missing")
}

func TestManagerCallbacks(t *testing.T) {
	sm := testManager(t, 0)

	var created, closed []string
	sm.SetOnSessionCreate(func(s *Session) { created = append(created, s.ID) })
	sm.SetOnSessionClose(func(s *Session) { closed = append(closed, s.ID) })

	session, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Close(session.ID)

	if len(created) != 1 || created[0] != session.ID {
		t.Errorf("create callback got %v", created)
	}
	if len(closed) != 1 || closed[0] != session.ID {
		t.Errorf("close callback got %v", closed)
	}
}

func TestManagerCleanupExpired(t *testing.T) {
	sm := testManager(t, 0)

	idle, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	fresh, _ := sm.Create(nil, protocol.NewClientHello("/", ""))

	// Age the first session past the idle cutoff.
	idle.lastActive.Store(time.Now().Add(-2 * sm.config.IdleTimeout).UnixNano())

	sm.cleanupExpired()

	if sm.Get(idle.ID) != nil {
		t.Error("idle session should have been reaped")
	}
	if sm.Get(fresh.ID) == nil {
		t.Error("fresh session should survive cleanup")
	}
}

func TestManagerCleanupReapsSelfClosedSessions(t *testing.T) {
	sm := testManager(t, 0)

	session, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	session.Close() // read loop exit path: session closes itself

	sm.cleanupExpired()

	if sm.Get(session.ID) != nil {
		t.Error("self-closed session should have been reaped")
	}
}

func TestManagerShutdown(t *testing.T) {
	sm := NewSessionManager(DefaultSessionConfig(), 0, time.Hour, slog.Default())

	a, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	b, _ := sm.Create(nil, protocol.NewClientHello("/", ""))

	sm.Shutdown()

	if !a.IsClosed() || !b.IsClosed() {
		t.Error("shutdown should close every session")
	}
	if sm.Count() != 0 {
		t.Errorf("count = %d, want 0", sm.Count())
	}

	// Shutdown is idempotent.
	sm.Shutdown()
}

func TestManagerForEach(t *testing.T) {
	sm := testManager(t, 0)

	sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Create(nil, protocol.NewClientHello("/", ""))

	var visited int
	sm.ForEach(func(s *Session) bool {
		visited++
		return visited < 2 // stop early
	})

	if visited != 2 {
		t.Errorf("visited = %d, want 2", visited)
	}
}

func TestManagerStats(t *testing.T) {
	sm := testManager(t, 0)

	s1, _ := sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Create(nil, protocol.NewClientHello("/", ""))
	sm.Close(s1.ID)

	stats := sm.Stats()
	if stats.Active != 1 {
		t.Errorf("active = %d, want 1", stats.Active)
	}
	if stats.TotalCreated != 2 {
		t.Errorf("total created = %d, want 2", stats.TotalCreated)
	}
	if stats.TotalClosed != 1 {
		t.Errorf("total closed = %d, want 1", stats.TotalClosed)
	}
}
