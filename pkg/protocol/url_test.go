package protocol

import "testing"

func TestURLPatchRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		patch *URLPatch
	}{
		{"push", NewURLPushPatch(1, "tags=Point,Label")},
		{"replace", NewURLReplacePatch(2, "lat=12.5")},
		{"empty_query", NewURLPushPatch(3, "")},
		{"large_seq", NewURLPushPatch(1<<60, "q=x")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeURLPatch(EncodeURLPatch(tc.patch))
			if err != nil {
				t.Fatalf("DecodeURLPatch() error = %v", err)
			}
			if *decoded != *tc.patch {
				t.Errorf("round trip: got %+v, want %+v", decoded, tc.patch)
			}
		})
	}
}

func TestURLPatchOps(t *testing.T) {
	if p := NewURLPushPatch(1, "q"); p.Op != URLPush {
		t.Errorf("push constructor: got op %v", p.Op)
	}
	if p := NewURLReplacePatch(1, "q"); p.Op != URLReplace {
		t.Errorf("replace constructor: got op %v", p.Op)
	}

	if got := URLPush.String(); got != "Push" {
		t.Errorf("got %q", got)
	}
	if got := URLReplace.String(); got != "Replace" {
		t.Errorf("got %q", got)
	}
	if got := URLOp(0x7F).String(); got != "Unknown" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeURLPatchTruncated(t *testing.T) {
	data := EncodeURLPatch(NewURLPushPatch(300, "tags=Weather"))

	for i := 0; i < len(data); i++ {
		if _, err := DecodeURLPatch(data[:i]); err == nil {
			t.Fatalf("truncation at %d decoded without error", i)
		}
	}
}
