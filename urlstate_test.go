package urlstate

import (
	"testing"
)

// The root package re-exports the building blocks applications touch;
// this exercises the wrappers end to end without a transport.
func TestFacadeStoreRoundTrip(t *testing.T) {
	globe := NewStore("globe")
	tags := Define(globe, "tags", []string{"Weather"})
	zoom := Define(globe, "zoom", 3)

	if globe.ID() != "globe" {
		t.Errorf("ID = %q, want globe", globe.ID())
	}
	if !globe.Has("tags") || !globe.Has("zoom") {
		t.Error("defined fields not visible on the store")
	}

	tags.Set([]string{"Point", "Label"})
	if got := tags.Get(); len(got) != 2 || got[0] != "Point" {
		t.Errorf("tags = %v, want [Point Label]", got)
	}

	zoom.Update(func(z int) int { return z + 1 })
	if got := zoom.Get(); got != 4 {
		t.Errorf("zoom = %d, want 4", got)
	}
}

func TestFacadeFieldBuilder(t *testing.T) {
	spec := Field[bool]("enabled").
		Param("on").
		Serialize(func(v bool) string {
			if v {
				return "1"
			}
			return "0"
		}).
		Deserialize(func(raw string) (bool, error) {
			return raw == "1", nil
		})

	if spec.FieldName() != "enabled" {
		t.Errorf("field name = %q, want enabled", spec.FieldName())
	}
	if spec.ParamKey() != "on" {
		t.Errorf("param key = %q, want on", spec.ParamKey())
	}
}
