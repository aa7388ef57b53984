package reactive

import "sync/atomic"

// idCounter is the source of unique IDs for all reactive primitives.
// Atomic operations keep ID generation thread-safe without locks.
var idCounter uint64

// nextID returns the next unique ID for a reactive primitive.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
