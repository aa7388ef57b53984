package querysync

import (
	"errors"
	"fmt"
)

// ErrStoreAttached is returned by Attach when a store with the same ID is
// already bound to the manager.
var ErrStoreAttached = errors.New("querysync: store already attached")

// Reason classifies why a URL parameter could not be applied to its field.
type Reason string

const (
	// ReasonMultiValue: the parameter appeared more than once in the query.
	ReasonMultiValue Reason = "multi-value"

	// ReasonDecode: the deserializer returned an error or panicked.
	ReasonDecode Reason = "decode"

	// ReasonRejected: the decoded value failed the field's Valid predicate.
	ReasonRejected Reason = "rejected"

	// ReasonAssign: the store rejected the decoded value (unknown field or
	// type mismatch).
	ReasonAssign Reason = "assign"
)

// ParamError describes a single URL parameter that could not be applied.
// It is the failure arm of the inbound decode step; the engine logs it,
// strips the parameter, and moves on. Callers only ever see it through
// the Observer seam.
type ParamError struct {
	Store  string // store ID
	Field  string // field name
	Param  string // URL parameter key
	Raw    string // raw parameter text from the URL
	Reason Reason
	Err    error // underlying error, may be nil
}

func (e *ParamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("querysync: param %q (field %q, store %q): %s: %v",
			e.Param, e.Field, e.Store, e.Reason, e.Err)
	}
	return fmt.Sprintf("querysync: param %q (field %q, store %q): %s",
		e.Param, e.Field, e.Store, e.Reason)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}
