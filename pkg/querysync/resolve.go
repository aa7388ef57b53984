package querysync

import (
	"reflect"
	"strings"
)

// Resolve reads a dotted path out of an arbitrary value: map keys for
// maps with string keys, `url`-tagged or lowercased field names for
// structs, with pointers followed along the way.
//
// Absence is a first-class result: a missing key, nil link, or
// non-container segment yields (nil, false). Resolve never panics; it is
// a read-only diagnostic and must not take a sync pass down with it.
func Resolve(root any, path string) (v any, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()

	if path == "" {
		return root, root != nil
	}

	cur := root
	for _, seg := range strings.Split(path, ".") {
		next, found := resolveSegment(cur, seg)
		if !found {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// resolveSegment reads one path segment out of v.
func resolveSegment(v any, seg string) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		keyType := rv.Type().Key()
		if keyType.Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(seg).Convert(keyType))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true

	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			key := field.Tag.Get("url")
			if key == "" {
				key = strings.ToLower(field.Name)
			}
			if key == "-" {
				continue
			}

			if key == seg {
				return rv.Field(i).Interface(), true
			}
		}
		return nil, false

	default:
		return nil, false
	}
}
