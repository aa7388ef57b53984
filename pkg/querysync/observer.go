package querysync

import "time"

// Observer receives engine lifecycle notifications. Implementations must
// be fast and must not call back into the engine; they run inline on the
// goroutine driving the pass. The prometheus and otel observers in
// pkg/middleware implement this interface.
type Observer interface {
	// InboundDone reports a completed inbound pass: how many parameters
	// were applied, how many were recovered (stripped), and how long the
	// pass took.
	InboundDone(store string, applied, recovered int, elapsed time.Duration)

	// OutboundDone reports a completed outbound pass: how many parameters
	// were written, how many were removed, and whether a history entry
	// was pushed.
	OutboundDone(store string, set, removed int, pushed bool, elapsed time.Duration)

	// ParamRecovered reports one parameter stripped during recovery.
	ParamRecovered(store, param string, reason Reason)
}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) InboundDone(store string, applied, recovered int, elapsed time.Duration) {
	for _, o := range m {
		o.InboundDone(store, applied, recovered, elapsed)
	}
}

func (m MultiObserver) OutboundDone(store string, set, removed int, pushed bool, elapsed time.Duration) {
	for _, o := range m {
		o.OutboundDone(store, set, removed, pushed, elapsed)
	}
}

func (m MultiObserver) ParamRecovered(store, param string, reason Reason) {
	for _, o := range m {
		o.ParamRecovered(store, param, reason)
	}
}

// nopObserver is installed when no observer is configured.
type nopObserver struct{}

func (nopObserver) InboundDone(string, int, int, time.Duration)        {}
func (nopObserver) OutboundDone(string, int, int, bool, time.Duration) {}
func (nopObserver) ParamRecovered(string, string, Reason)              {}
