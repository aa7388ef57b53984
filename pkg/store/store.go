// Package store provides named collections of reactive fields.
//
// A Store is created once per logical state unit (for example "globe" or
// "view") and its fields are declared up front with Define. Define returns
// a typed handle for application code, while the Store itself offers
// name-based erased access for infrastructure that works across stores.
//
// Example:
//
//	globe := store.New("globe")
//	tags := store.Define(globe, "tags", []string{"Weather"})
//	search := store.Define(globe, "search", "")
//
//	tags.Set([]string{"Science"})        // typed write
//	v, ok := globe.Value("search")       // erased read
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/urlstate-go/urlstate/pkg/reactive"
)

var (
	// ErrFieldUnknown is returned when a name-based access refers to a
	// field that was never defined.
	ErrFieldUnknown = errors.New("store: unknown field")

	// ErrFieldType is returned when Assign receives a value whose dynamic
	// type does not match the field's declared type.
	ErrFieldType = errors.New("store: value type mismatch")
)

// Store is a named collection of reactive fields.
type Store struct {
	id string

	mu     sync.RWMutex
	fields map[string]anyField
	order  []string
}

// anyField is the erased view of a typed field used for name-based access.
type anyField interface {
	// value returns the current value without tracking.
	value() any

	// assign writes a value, rejecting dynamic type mismatches.
	assign(v any) error

	// observe performs a tracked read so the active listener subscribes.
	observe()
}

// New creates an empty store with the given identifier.
// The identifier names the store in logs and preset override maps.
func New(id string) *Store {
	return &Store{
		id:     id,
		fields: make(map[string]anyField),
	}
}

// ID returns the store's identifier.
func (s *Store) ID() string {
	return s.id
}

// Define registers a typed field and returns its handle.
// Fields must be defined before the store is attached to any synchronizer
// or subscriber. Defining the same name twice panics: duplicate field names
// are a programming error, not a runtime condition.
func Define[T any](s *Store, name string, initial T) *Field[T] {
	f := &Field[T]{
		name: name,
		sig:  reactive.NewSignal(initial),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fields[name]; exists {
		panic("store: duplicate field " + name + " in store " + s.id)
	}
	s.fields[name] = f
	s.order = append(s.order, name)

	return f
}

// Has reports whether a field with the given name was defined.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.fields[name]
	return ok
}

// Value returns the current value of the named field without tracking.
// The second result is false if the field was never defined.
func (s *Store) Value(name string) (any, bool) {
	s.mu.RLock()
	f, ok := s.fields[name]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return f.value(), true
}

// Assign writes a value to the named field.
// The value's dynamic type must match the field's declared type exactly;
// infrastructure feeding values from the outside gets an explicit error
// instead of a silently coerced write.
func (s *Store) Assign(name string, v any) error {
	s.mu.RLock()
	f, ok := s.fields[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q in store %q", ErrFieldUnknown, name, s.id)
	}
	return f.assign(v)
}

// FieldNames returns the defined field names in definition order.
func (s *Store) FieldNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Snapshot returns the current value of every field, keyed by name.
// Values are read without tracking.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]any, len(s.order))
	for name, f := range s.fields {
		snap[name] = f.value()
	}
	return snap
}

// Subscribe registers fn to run after every mutation of any field defined
// at subscription time. Mutations grouped in a reactive.Batch coalesce into
// a single invocation. fn runs synchronously on the mutating goroutine.
//
// There is no unsubscribe: a store and its subscribers share a lifetime.
func (s *Store) Subscribe(fn func()) {
	cb := reactive.NewCallback(fn)

	s.mu.RLock()
	fields := make([]anyField, 0, len(s.order))
	for _, name := range s.order {
		fields = append(fields, s.fields[name])
	}
	s.mu.RUnlock()

	// A tracked read of each field subscribes the callback to its signal.
	reactive.WithListener(cb, func() {
		for _, f := range fields {
			f.observe()
		}
	})
}

// Field is a typed handle to a single store field.
type Field[T any] struct {
	name string
	sig  *reactive.Signal[T]
}

// Name returns the field's name within its store.
func (f *Field[T]) Name() string {
	return f.name
}

// Get returns the current value, subscribing the active listener if any.
func (f *Field[T]) Get() T {
	return f.sig.Get()
}

// Peek returns the current value without subscribing.
func (f *Field[T]) Peek() T {
	return f.sig.Peek()
}

// Set writes a new value, notifying subscribers if it changed.
func (f *Field[T]) Set(v T) {
	f.sig.Set(v)
}

// Update atomically transforms the current value.
func (f *Field[T]) Update(fn func(T) T) {
	f.sig.Update(fn)
}

func (f *Field[T]) value() any {
	return f.sig.Peek()
}

func (f *Field[T]) assign(v any) error {
	tv, ok := v.(T)
	if !ok {
		var want T
		return fmt.Errorf("%w: field %q wants %T, got %T", ErrFieldType, f.name, want, v)
	}
	f.sig.Set(tv)
	return nil
}

func (f *Field[T]) observe() {
	_ = f.sig.Get()
}
