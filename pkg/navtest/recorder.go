// Package navtest provides nav.Navigator doubles for tests.
package navtest

import (
	"net/url"
	"sync"
	"testing"

	"github.com/urlstate-go/urlstate/pkg/nav"
)

// Recorder is a Navigator that records every push and replace on top of
// a real in-memory history, so tests can assert both the trail of
// mutations and the resulting state.
//
// Example:
//
//	rec := navtest.NewRecorder(nav.ParseQuery("tags=Point,Label"))
//	rec.MarkReady()
//	...
//	rec.ExpectQuery(t, "tags=Custom")
//	rec.ExpectHistoryLen(t, 2)
type Recorder struct {
	*nav.MemoryNavigator

	mu       sync.Mutex
	pushes   []url.Values
	replaces []url.Values
}

var _ nav.Navigator = (*Recorder)(nil)

// NewRecorder creates a recorder whose history starts with the given
// query. Call MarkReady to release waiting bindings.
func NewRecorder(initial url.Values) *Recorder {
	return &Recorder{MemoryNavigator: nav.NewMemoryNavigator(initial)}
}

// PushQuery records the push and applies it to the history.
func (r *Recorder) PushQuery(q url.Values) {
	r.mu.Lock()
	r.pushes = append(r.pushes, nav.CloneQuery(q))
	r.mu.Unlock()
	r.MemoryNavigator.PushQuery(q)
}

// ReplaceQuery records the replace and applies it to the history.
func (r *Recorder) ReplaceQuery(q url.Values) {
	r.mu.Lock()
	r.replaces = append(r.replaces, nav.CloneQuery(q))
	r.mu.Unlock()
	r.MemoryNavigator.ReplaceQuery(q)
}

// Pushes returns the recorded pushes in order.
func (r *Recorder) Pushes() []url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]url.Values, len(r.pushes))
	copy(out, r.pushes)
	return out
}

// Replaces returns the recorded replaces in order.
func (r *Recorder) Replaces() []url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]url.Values, len(r.replaces))
	copy(out, r.replaces)
	return out
}

// HistoryLen returns the number of history entries.
func (r *Recorder) HistoryLen() int {
	return r.History().Len()
}

// ExpectQuery asserts that the current query encodes to want.
func (r *Recorder) ExpectQuery(t *testing.T, want string) {
	t.Helper()
	if got := nav.EncodeQuery(r.Query()); got != want {
		t.Errorf("expected query %q, got %q", want, got)
	}
}

// ExpectHistoryLen asserts the history length.
func (r *Recorder) ExpectHistoryLen(t *testing.T, want int) {
	t.Helper()
	if got := r.HistoryLen(); got != want {
		t.Errorf("expected history length %d, got %d", want, got)
	}
}

// ExpectPushes asserts how many pushes were recorded.
func (r *Recorder) ExpectPushes(t *testing.T, want int) {
	t.Helper()
	r.mu.Lock()
	got := len(r.pushes)
	r.mu.Unlock()
	if got != want {
		t.Errorf("expected %d pushes, got %d", want, got)
	}
}

// ExpectReplaces asserts how many replaces were recorded.
func (r *Recorder) ExpectReplaces(t *testing.T, want int) {
	t.Helper()
	r.mu.Lock()
	got := len(r.replaces)
	r.mu.Unlock()
	if got != want {
		t.Errorf("expected %d replaces, got %d", want, got)
	}
}
