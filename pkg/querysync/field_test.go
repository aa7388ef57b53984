package querysync

import (
	"fmt"
	"strings"
	"testing"
)

func TestFieldDefaults(t *testing.T) {
	f := Field[[]string]("tags")

	if f.FieldName() != "tags" {
		t.Errorf("field name: got %q", f.FieldName())
	}
	if f.ParamKey() != "tags" {
		t.Errorf("param should default to the field name: got %q", f.ParamKey())
	}

	enc, err := f.encodeValue([]string{"Point", "Label"})
	if err != nil || enc != "Point,Label" {
		t.Errorf("stock serializer: got %q, %v", enc, err)
	}

	v, err := f.decodeValue("Point,Label")
	if err != nil {
		t.Fatalf("stock deserializer: %v", err)
	}
	if tags := v.([]string); len(tags) != 2 || tags[0] != "Point" {
		t.Errorf("got %v", tags)
	}
}

func TestFieldParamOverride(t *testing.T) {
	f := Field[string]("search").Param("q")

	if f.FieldName() != "search" {
		t.Errorf("field name: got %q", f.FieldName())
	}
	if f.ParamKey() != "q" {
		t.Errorf("param key: got %q", f.ParamKey())
	}
}

func TestFieldCustomCodec(t *testing.T) {
	f := Field[bool]("enabled").
		Serialize(func(b bool) string {
			if b {
				return "1"
			}
			return "0"
		}).
		Deserialize(func(s string) (bool, error) {
			switch s {
			case "1":
				return true, nil
			case "0":
				return false, nil
			}
			return false, fmt.Errorf("not a flag: %q", s)
		})

	enc, err := f.encodeValue(true)
	if err != nil || enc != "1" {
		t.Errorf("encode true: got %q, %v", enc, err)
	}
	enc, err = f.encodeValue(false)
	if err != nil || enc != "0" {
		t.Errorf("encode false: got %q, %v", enc, err)
	}

	v, err := f.decodeValue("0")
	if err != nil || v != false {
		t.Errorf("decode 0: got %v, %v", v, err)
	}
	if _, err := f.decodeValue("yes"); err == nil {
		t.Error("expected error for unrecognized flag text")
	}
}

func TestFieldEncodeTotality(t *testing.T) {
	f := Field[int]("zoom")

	// Absent values encode to the empty string.
	enc, err := f.encodeValue(nil)
	if err != nil || enc != "" {
		t.Errorf("nil: got %q, %v", enc, err)
	}

	// Loosely-typed values from nested reads coerce instead of failing.
	enc, err = f.encodeValue("already-a-string")
	if err != nil || enc != "already-a-string" {
		t.Errorf("foreign type: got %q, %v", enc, err)
	}

	panicky := Field[int]("zoom").Serialize(func(int) string {
		panic("boom")
	})
	if _, err := panicky.encodeValue(7); err == nil {
		t.Error("serializer panic should surface as an error")
	}
}

func TestFieldDecodePanicBecomesError(t *testing.T) {
	f := Field[int]("zoom").Deserialize(func(string) (int, error) {
		panic("boom")
	})

	if _, err := f.decodeValue("7"); err == nil {
		t.Error("deserializer panic should surface as an error")
	}
}

func TestFieldValidPredicate(t *testing.T) {
	f := Field[[]string]("tags").Valid(func(tags []string) bool {
		return len(tags) > 0
	})

	if !f.acceptValue([]string{"Weather"}) {
		t.Error("non-empty list should be accepted")
	}
	if f.acceptValue([]string{}) {
		t.Error("empty list should be rejected")
	}
	if f.acceptValue(42) {
		t.Error("foreign type should be rejected")
	}

	// No predicate accepts everything of the right type.
	if !Field[[]string]("tags").acceptValue([]string{}) {
		t.Error("absent predicate should accept")
	}

	panicky := Field[string]("s").Valid(func(string) bool {
		panic("boom")
	})
	if panicky.acceptValue("x") {
		t.Error("panicking predicate should reject")
	}
}

func TestFieldSpecSealed(t *testing.T) {
	// Every chaining step keeps returning the same spec, so declarations
	// read as one expression.
	f := Field[string]("search").
		Param("q").
		Serialize(strings.ToUpper).
		Valid(func(s string) bool { return s != "" })

	var spec FieldSpec = f
	if spec.ParamKey() != "q" {
		t.Errorf("got %q", spec.ParamKey())
	}
	enc, err := spec.encodeValue("iss")
	if err != nil || enc != "ISS" {
		t.Errorf("got %q, %v", enc, err)
	}
}
