package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a
	// closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrMaxSessionsReached is returned when the session limit is hit.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrSendQueueFull is returned when the outbound frame queue is full
	// and a frame is dropped.
	ErrSendQueueFull = errors.New("server: send queue full")

	// ErrNoConnection is returned when attempting to send on a nil
	// connection.
	ErrNoConnection = errors.New("server: no connection")

	// ErrNoSetHandler is returned when a field edit arrives but the
	// application never registered a handler via Session.OnSet.
	ErrNoSetHandler = errors.New("server: no set handler registered")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}
