// Package nav defines the engine's view of the browser address bar.
//
// A Navigator exposes the current query string, the two ways a query can
// change (push a new history entry, or replace the current one in place),
// and a one-shot readiness signal that fires once navigation has settled
// and the query is trustworthy.
//
// The package also provides the query codec shared by every Navigator
// implementation and an in-process History model with browser semantics.
package nav

import "net/url"

// Mode identifies how a query update affects browser history.
type Mode int

const (
	// ModePush adds a new history entry.
	ModePush Mode = iota

	// ModeReplace replaces the current history entry (no back button spam).
	ModeReplace
)

// String returns the mode name used in logs and wire messages.
func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Navigator is the address-bar handle the sync engine works against.
//
// Implementations: Session (pkg/server) bridges to a live browser over
// WebSocket, MemoryNavigator runs headless, and navtest provides recording
// doubles.
type Navigator interface {
	// Query returns a copy of the current query parameters.
	// Mutating the returned values never affects the navigator.
	Query() url.Values

	// ReplaceQuery swaps the query of the current history entry in place.
	// Used for corrections that must not create a back-button stop.
	ReplaceQuery(q url.Values)

	// PushQuery adds a new history entry with the given query.
	PushQuery(q url.Values)

	// Ready returns a channel that is closed once navigation has settled
	// and Query reflects the real address bar. It closes at most once for
	// the navigator's lifetime; consumers that miss the close still see a
	// closed channel.
	Ready() <-chan struct{}
}
