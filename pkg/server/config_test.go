package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Address != ":8080" {
		t.Errorf("address = %q, want :8080", c.Address)
	}
	if c.CheckOrigin == nil {
		t.Error("CheckOrigin should default to SameOriginCheck")
	}
	if c.Session == nil {
		t.Fatal("session config should be set")
	}
	if c.Session.HeartbeatInterval != 30*time.Second {
		t.Errorf("heartbeat = %v, want 30s", c.Session.HeartbeatInterval)
	}
	if c.Session.MaxMessageSize != 64*1024 {
		t.Errorf("max message size = %d, want 64KB", c.Session.MaxMessageSize)
	}
}

func TestConfigFillDefaults(t *testing.T) {
	c := &Config{
		Address: ":9000",
		Session: &SessionConfig{ReadTimeout: 5 * time.Second},
	}
	c.fillDefaults()

	if c.Address != ":9000" {
		t.Errorf("explicit address overwritten: %q", c.Address)
	}
	if c.Session.ReadTimeout != 5*time.Second {
		t.Errorf("explicit read timeout overwritten: %v", c.Session.ReadTimeout)
	}
	if c.Session.WriteTimeout == 0 {
		t.Error("unset write timeout should be filled")
	}
	if c.ReadBufferSize == 0 {
		t.Error("unset read buffer size should be filled")
	}
	if c.ShutdownTimeout == 0 {
		t.Error("unset shutdown timeout should be filled")
	}
}

func TestSessionConfigClone(t *testing.T) {
	orig := DefaultSessionConfig()
	clone := orig.Clone()

	clone.ReadTimeout = time.Minute
	if orig.ReadTimeout == time.Minute {
		t.Error("clone should be independent of the original")
	}

	var nilConfig *SessionConfig
	if nilConfig.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no_origin_header", "", "example.com", true},
		{"matching_host", "http://example.com", "example.com", true},
		{"matching_host_with_port", "http://example.com:3000", "example.com:3000", true},
		{"cross_origin", "http://evil.com", "example.com", false},
		{"port_mismatch", "http://example.com:3000", "example.com:4000", false},
		{"malformed_origin", "http://[bad", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := SameOriginCheck(r); got != tt.want {
				t.Errorf("SameOriginCheck(origin=%q, host=%q) = %v, want %v",
					tt.origin, tt.host, got, tt.want)
			}
		})
	}
}
