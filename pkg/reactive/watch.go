package reactive

import (
	"sync"
	"sync/atomic"
)

// Watcher is a synchronous observer created by Watch. Its function runs
// once at creation and again every time a signal it read during its last
// run changes. Unlike a Callback, a Watcher re-tracks its dependency set
// on every run, so conditional reads subscribe and unsubscribe naturally.
type Watcher struct {
	id uint64

	// fn is the watch body.
	fn func()

	// sources are the signals read during the last run.
	sources   []*signalBase
	sourcesMu sync.Mutex

	stopped atomic.Bool
}

// Watch runs fn immediately and re-runs it whenever any signal it read
// during its last run changes. Re-runs happen synchronously on the
// goroutine that performed the triggering write (or flushed the batch).
func Watch(fn func()) *Watcher {
	w := &Watcher{id: nextID(), fn: fn}
	w.run()
	return w
}

// MarkDirty re-runs the watch function. Implements Listener.
func (w *Watcher) MarkDirty() {
	if w.stopped.Load() {
		return
	}
	w.run()
}

// ID implements Listener.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Stop unsubscribes the watcher from all of its sources.
// A stopped watcher never runs again.
func (w *Watcher) Stop() {
	if w.stopped.Swap(true) {
		return
	}

	w.sourcesMu.Lock()
	for _, source := range w.sources {
		source.unsubscribe(w)
	}
	w.sources = nil
	w.sourcesMu.Unlock()
}

func (w *Watcher) run() {
	// Drop stale subscriptions so this run re-tracks from scratch.
	w.sourcesMu.Lock()
	for _, source := range w.sources {
		source.unsubscribe(w)
	}
	w.sources = w.sources[:0]
	w.sourcesMu.Unlock()

	WithListener(w, w.fn)
}

// addSource records a signal read during the current run.
// Called by signals via the sourceTracker interface.
func (w *Watcher) addSource(source *signalBase) {
	w.sourcesMu.Lock()
	defer w.sourcesMu.Unlock()

	for _, s := range w.sources {
		if s == source {
			return
		}
	}
	w.sources = append(w.sources, source)
}
