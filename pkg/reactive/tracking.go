package reactive

import (
	"runtime"
	"sync"
)

// trackingState holds the reactive bookkeeping for one goroutine.
// Each goroutine gets its own state so concurrent sessions can run tracked
// scopes without observing each other's listeners.
type trackingState struct {
	// activeListener is what's currently tracking dependencies.
	// When a signal is read, it subscribes this listener.
	// nil means no tracking (reads don't create subscriptions).
	activeListener Listener

	// batchDepth tracks nested Batch() calls.
	// When > 0, signal updates queue notifications instead of firing
	// immediately.
	batchDepth int

	// pendingUpdates accumulates listeners to notify when the outermost
	// batch completes. Deduplicated by ID before notification.
	pendingUpdates []Listener
}

// trackingStates stores per-goroutine tracking state.
var trackingStates sync.Map

// goroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ...").
// Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingState returns the tracking state for the current goroutine,
// creating it on first use.
func getTrackingState() *trackingState {
	gid := goroutineID()

	if st, ok := trackingStates.Load(gid); ok {
		return st.(*trackingState)
	}

	st := &trackingState{}
	trackingStates.Store(gid, st)
	return st
}

// getActiveListener returns the listener currently tracking dependencies.
// Returns nil if no tracking is active.
func getActiveListener() Listener {
	return getTrackingState().activeListener
}

// setActiveListener installs l as the tracking listener for this goroutine.
// Returns the previous listener so it can be restored.
func setActiveListener(l Listener) Listener {
	st := getTrackingState()
	old := st.activeListener
	st.activeListener = l
	return old
}

func getBatchDepth() int {
	return getTrackingState().batchDepth
}

func incrementBatchDepth() {
	getTrackingState().batchDepth++
}

// decrementBatchDepth decreases the batch depth by 1.
// Returns true if batch depth reached 0 (batch complete).
func decrementBatchDepth() bool {
	st := getTrackingState()
	st.batchDepth--
	return st.batchDepth == 0
}

// queuePendingUpdate records a listener to notify when the batch completes.
func queuePendingUpdate(l Listener) {
	st := getTrackingState()
	st.pendingUpdates = append(st.pendingUpdates, l)
}

// drainPendingUpdates returns and clears the pending updates queue.
func drainPendingUpdates() []Listener {
	st := getTrackingState()
	updates := st.pendingUpdates
	st.pendingUpdates = nil
	return updates
}

// WithListener runs fn with l installed as the tracking listener: every
// signal read inside fn subscribes l. The previous listener is restored
// afterwards.
func WithListener(l Listener, fn func()) {
	old := setActiveListener(l)
	defer setActiveListener(old)
	fn()
}

// ReleaseGoroutine drops the tracking state for the current goroutine.
// Long-lived servers should call this when a goroutine that ran tracked
// scopes is about to exit. Optional: states are small and a reused
// goroutine ID simply overwrites the stale entry.
func ReleaseGoroutine() {
	trackingStates.Delete(goroutineID())
}
