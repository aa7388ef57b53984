package protocol

import "testing"

func TestControlPingPong(t *testing.T) {
	ct, payload := NewPing(1700000000123)
	data := EncodeControl(ct, payload)

	gotType, gotPayload, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if gotType != ControlPing {
		t.Errorf("type: got %v", gotType)
	}
	pp, ok := gotPayload.(*PingPong)
	if !ok || pp.Timestamp != 1700000000123 {
		t.Errorf("payload: got %+v", gotPayload)
	}

	ct, payload = NewPong(pp.Timestamp)
	gotType, gotPayload, err = DecodeControl(EncodeControl(ct, payload))
	if err != nil || gotType != ControlPong {
		t.Fatalf("pong: got %v, %v", gotType, err)
	}
	if pp := gotPayload.(*PingPong); pp.Timestamp != 1700000000123 {
		t.Errorf("pong timestamp: got %d", pp.Timestamp)
	}
}

func TestControlResync(t *testing.T) {
	ct, payload := NewResyncRequest(41)
	gotType, gotPayload, err := DecodeControl(EncodeControl(ct, payload))
	if err != nil || gotType != ControlResyncRequest {
		t.Fatalf("got %v, %v", gotType, err)
	}
	if rr := gotPayload.(*ResyncRequest); rr.LastSeq != 41 {
		t.Errorf("last seq: got %d", rr.LastSeq)
	}

	ct, rq := NewResyncQuery(42, "tags=Point&zoom=5")
	gotType, gotPayload, err = DecodeControl(EncodeControl(ct, rq))
	if err != nil || gotType != ControlResyncQuery {
		t.Fatalf("got %v, %v", gotType, err)
	}
	if got := gotPayload.(*ResyncQuery); *got != *rq {
		t.Errorf("got %+v, want %+v", got, rq)
	}
}

func TestControlClose(t *testing.T) {
	ct, cm := NewClose(CloseServerShutdown, "restarting")

	gotType, gotPayload, err := DecodeControl(EncodeControl(ct, cm))
	if err != nil || gotType != ControlClose {
		t.Fatalf("got %v, %v", gotType, err)
	}
	got := gotPayload.(*CloseMessage)
	if got.Reason != CloseServerShutdown || got.Message != "restarting" {
		t.Errorf("got %+v", got)
	}
}

func TestControlWrongPayloadEncodesZero(t *testing.T) {
	// A mismatched payload must not panic; it encodes the zero payload.
	data := EncodeControl(ControlPing, "not a ping")

	_, payload, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	if pp := payload.(*PingPong); pp.Timestamp != 0 {
		t.Errorf("got %+v", pp)
	}
}

func TestControlUnknownType(t *testing.T) {
	ct, payload, err := DecodeControl([]byte{0x7F})
	if err != nil {
		t.Fatalf("unknown control should not error, got %v", err)
	}
	if ct != ControlType(0x7F) || payload != nil {
		t.Errorf("got %v, %v", ct, payload)
	}
}

func TestDecodeControlEmpty(t *testing.T) {
	if _, _, err := DecodeControl(nil); err == nil {
		t.Error("empty control should error")
	}
}
