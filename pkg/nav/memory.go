package nav

import (
	"net/url"
	"sync"
)

// MemoryNavigator is a Navigator backed by an in-process History.
// It is the headless binding used by tests, tools, and embedders that
// have no live browser on the other end.
type MemoryNavigator struct {
	hist *History

	ready     chan struct{}
	readyOnce sync.Once
}

var _ Navigator = (*MemoryNavigator)(nil)

// NewMemoryNavigator creates a navigator whose history starts with a
// single entry holding the given query. Call MarkReady once the initial
// query is final.
func NewMemoryNavigator(initial url.Values) *MemoryNavigator {
	return &MemoryNavigator{
		hist:  NewHistory(Entry{Path: "/", Query: initial}),
		ready: make(chan struct{}),
	}
}

// Query returns a copy of the current entry's query.
func (n *MemoryNavigator) Query() url.Values {
	return n.hist.Current().Query
}

// ReplaceQuery swaps the current entry's query in place.
func (n *MemoryNavigator) ReplaceQuery(q url.Values) {
	cur := n.hist.Current()
	n.hist.Replace(Entry{Path: cur.Path, Query: q})
}

// PushQuery adds a new history entry with the given query.
func (n *MemoryNavigator) PushQuery(q url.Values) {
	cur := n.hist.Current()
	n.hist.Push(Entry{Path: cur.Path, Query: q})
}

// Ready returns the readiness channel; it closes when MarkReady is called.
func (n *MemoryNavigator) Ready() <-chan struct{} {
	return n.ready
}

// MarkReady declares the initial query settled. Safe to call more than
// once; only the first call has an effect.
func (n *MemoryNavigator) MarkReady() {
	n.readyOnce.Do(func() {
		close(n.ready)
	})
}

// History exposes the underlying history for inspection and for driving
// back/forward moves.
func (n *MemoryNavigator) History() *History {
	return n.hist
}
