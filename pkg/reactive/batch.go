package reactive

// Batch groups multiple signal updates into a single notification phase.
// All updates within fn are collected, deduplicated by listener, and the
// affected listeners are notified once when the batch completes.
//
// Batches can be nested. Notifications only fire when the outermost batch
// completes.
//
// Example:
//
//	Batch(func() {
//	    lat.Set(47.6)
//	    lon.Set(-122.3)
//	    zoom.Set(9)
//	})
//	// Subscribers are notified once with all three changes applied
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingUpdates()
		}
	}()

	fn()
}

// processPendingUpdates deduplicates and notifies all pending listeners.
func processPendingUpdates() {
	updates := drainPendingUpdates()
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	unique := make([]Listener, 0, len(updates))

	for _, listener := range updates {
		id := listener.ID()
		if !seen[id] {
			seen[id] = true
			unique = append(unique, listener)
		}
	}

	for _, listener := range unique {
		listener.MarkDirty()
	}
}

// Untracked runs a function without tracking signal reads as dependencies.
// Useful when a tracked scope needs to read a signal without subscribing.
//
// For single signal reads, signal.Peek() is more efficient and clearer.
func Untracked(fn func()) {
	old := setActiveListener(nil)
	defer setActiveListener(old)
	fn()
}
