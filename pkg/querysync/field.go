package querysync

import "fmt"

// FieldSpec is the erased view of a synchronized field carried by Config.
// Specs are declared with Field; the interface is sealed so every spec in
// the system went through typed construction.
type FieldSpec interface {
	// FieldName returns the store field this spec binds.
	// A dotted name ("position.lat") reads into nested values and is
	// outbound-only: the inbound pass never writes through it.
	FieldName() string

	// ParamKey returns the URL query parameter key.
	ParamKey() string

	encodeValue(v any) (string, error)
	decodeValue(raw string) (any, error)
	acceptValue(v any) bool
}

// SyncField declares how one store field maps onto a URL parameter.
// The zero declaration Field[T](name) syncs the field to a parameter of
// the same name using the stock codec for T; Param, Serialize,
// Deserialize, and Valid refine it.
//
// Codecs and predicates must be pure: they run inside sync passes and
// must not mutate attached stores.
type SyncField[T any] struct {
	name  string
	param string

	serialize   func(T) string
	deserialize func(string) (T, error)
	valid       func(T) bool
}

// Field starts a declaration for the named store field.
//
//	querysync.Field[[]string]("tags")
//	querysync.Field[string]("search").Param("q")
//	querysync.Field[bool]("enabled").
//	    Serialize(func(b bool) string { if b { return "1" }; return "0" })
func Field[T any](name string) *SyncField[T] {
	return &SyncField[T]{
		name:        name,
		param:       name,
		serialize:   DefaultSerializer[T](),
		deserialize: DefaultDeserializer[T](),
	}
}

// Param overrides the URL parameter key. Default: the field name.
func (f *SyncField[T]) Param(key string) *SyncField[T] {
	f.param = key
	return f
}

// Serialize replaces the stock serializer.
func (f *SyncField[T]) Serialize(fn func(T) string) *SyncField[T] {
	f.serialize = fn
	return f
}

// Deserialize replaces the stock deserializer.
func (f *SyncField[T]) Deserialize(fn func(string) (T, error)) *SyncField[T] {
	f.deserialize = fn
	return f
}

// Valid sets an acceptance predicate applied to decoded values before
// they reach the store. A rejected value is treated like a decode
// failure: logged, stripped, and the field keeps its default.
func (f *SyncField[T]) Valid(fn func(T) bool) *SyncField[T] {
	f.valid = fn
	return f
}

// FieldName implements FieldSpec.
func (f *SyncField[T]) FieldName() string {
	return f.name
}

// ParamKey implements FieldSpec.
func (f *SyncField[T]) ParamKey() string {
	return f.param
}

// encodeValue serializes a live value. It is total: nil encodes to "",
// loosely-typed values from nested reads coerce via fmt, and serializer
// panics surface as errors instead of unwinding the pass.
func (f *SyncField[T]) encodeValue(v any) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = "", fmt.Errorf("serializer panic: %v", r)
		}
	}()

	if v == nil {
		return "", nil
	}
	tv, ok := v.(T)
	if !ok {
		return fmt.Sprint(v), nil
	}
	return f.serialize(tv), nil
}

// decodeValue deserializes raw parameter text. Deserializer panics
// surface as errors.
func (f *SyncField[T]) decodeValue(raw string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("deserializer panic: %v", r)
		}
	}()

	tv, err := f.deserialize(raw)
	if err != nil {
		return nil, err
	}
	return tv, nil
}

// acceptValue runs the Valid predicate, if any. Panics reject the value.
func (f *SyncField[T]) acceptValue(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if f.valid == nil {
		return true
	}
	tv, isT := v.(T)
	if !isT {
		return false
	}
	return f.valid(tv)
}
