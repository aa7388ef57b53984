package querysync

import (
	"reflect"
	"testing"
)

func TestDefaultSerializerCommonTypes(t *testing.T) {
	if got := DefaultSerializer[string]()("hello"); got != "hello" {
		t.Errorf("string: got %q", got)
	}
	if got := DefaultSerializer[int]()(-42); got != "-42" {
		t.Errorf("int: got %q", got)
	}
	if got := DefaultSerializer[float64]()(12.5); got != "12.5" {
		t.Errorf("float64: got %q", got)
	}
	if got := DefaultSerializer[bool]()(true); got != "true" {
		t.Errorf("bool: got %q", got)
	}
}

func TestDefaultSerializerStringSlice(t *testing.T) {
	ser := DefaultSerializer[[]string]()

	if got := ser([]string{"Point", "Label"}); got != "Point,Label" {
		t.Errorf("expected comma join, got %q", got)
	}
	if got := ser([]string{"Weather"}); got != "Weather" {
		t.Errorf("single element: got %q", got)
	}
	if got := ser(nil); got != "" {
		t.Errorf("nil slice: got %q", got)
	}
}

func TestDefaultSerializerFallsBackToJSON(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	if got := DefaultSerializer[point]()(point{X: 1, Y: 2}); got != `{"x":1,"y":2}` {
		t.Errorf("struct fallback: got %q", got)
	}
}

func TestDefaultDeserializerCommonTypes(t *testing.T) {
	s, err := DefaultDeserializer[string]()("hello")
	if err != nil || s != "hello" {
		t.Errorf("string: got %q, %v", s, err)
	}

	i, err := DefaultDeserializer[int]()("-42")
	if err != nil || i != -42 {
		t.Errorf("int: got %d, %v", i, err)
	}

	f, err := DefaultDeserializer[float64]()("12.5")
	if err != nil || f != 12.5 {
		t.Errorf("float64: got %v, %v", f, err)
	}

	b, err := DefaultDeserializer[bool]()("true")
	if err != nil || !b {
		t.Errorf("bool: got %v, %v", b, err)
	}
}

func TestDefaultDeserializerReturnsParseErrors(t *testing.T) {
	if _, err := DefaultDeserializer[int]()("abc"); err == nil {
		t.Error("expected error for non-numeric int")
	}
	if _, err := DefaultDeserializer[float64]()("12.5.6"); err == nil {
		t.Error("expected error for malformed float")
	}
	if _, err := DefaultDeserializer[bool]()("maybe"); err == nil {
		t.Error("expected error for non-bool")
	}
}

func TestDefaultDeserializerStringSlice(t *testing.T) {
	des := DefaultDeserializer[[]string]()

	got, err := des("Point,Label")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Point", "Label"}) {
		t.Errorf("expected [Point Label], got %v", got)
	}

	// Empty text is an empty list, not a list holding one empty string.
	got, err = des("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestDefaultCodecRoundTrip(t *testing.T) {
	ser := DefaultSerializer[[]string]()
	des := DefaultDeserializer[[]string]()

	for _, in := range [][]string{
		{"Weather"},
		{"Point", "Label"},
		{},
	} {
		out, err := des(ser(in))
		if err != nil {
			t.Fatalf("%v: %v", in, err)
		}
		if !reflect.DeepEqual(out, in) && !(len(out) == 0 && len(in) == 0) {
			t.Errorf("round trip %v: got %v", in, out)
		}
	}
}

func TestDefaultDeserializerJSONFallback(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}

	got, err := DefaultDeserializer[point]()(`{"x":1,"y":2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (point{X: 1, Y: 2}) {
		t.Errorf("got %+v", got)
	}

	if _, err := DefaultDeserializer[point]()("not json"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
