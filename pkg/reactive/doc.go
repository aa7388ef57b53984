// Package reactive provides the signal substrate the sync engine is built on.
//
// Dependencies are tracked automatically at runtime: reading a signal while a
// listener is active (see WithListener and Watch) subscribes that listener to
// the signal's changes.
//
// # Core Types
//
// Signal[T] is a reactive value container:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Callback is the simplest listener: a function invoked once per notification.
//
// Watch runs a function immediately and re-runs it whenever any signal it
// read during its last run changes.
//
// # Batching
//
// Multiple signal updates can be batched to trigger a single notification:
//
//	Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	    c.Set(3)
//	})  // Single notification after all updates
//
// # Thread Safety
//
// Signals are safe for concurrent use. Dependency tracking state is
// goroutine-local, so tracked scopes on different goroutines never observe
// each other's listeners.
package reactive
