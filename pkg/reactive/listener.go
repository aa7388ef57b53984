package reactive

// Listener is anything that can be notified when a dependency changes.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Callback is the simplest Listener: a function invoked synchronously on
// every notification. Notifications queued inside a Batch are deduplicated
// by listener ID, so a Callback fires once per batch no matter how many of
// its subscribed signals changed.
type Callback struct {
	id uint64
	fn func()
}

// NewCallback wraps fn in a Listener.
func NewCallback(fn func()) *Callback {
	return &Callback{id: nextID(), fn: fn}
}

// MarkDirty invokes the wrapped function. Implements Listener.
func (c *Callback) MarkDirty() {
	if c.fn != nil {
		c.fn()
	}
}

// ID implements Listener.
func (c *Callback) ID() uint64 {
	return c.id
}
