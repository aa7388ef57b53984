package urlstate

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/urlstate-go/urlstate/pkg/protocol"
)

func newTestApp(t *testing.T, cfg Config, wire SessionWiring) (*App, *httptest.Server) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	app := New(cfg)
	if wire != nil {
		app.OnSession(wire)
	}
	ts := httptest.NewServer(app)
	t.Cleanup(func() {
		ts.Close()
		app.Server().Sessions().Shutdown()
	})
	return app, ts
}

func writeFrame(t *testing.T, conn *websocket.Conn, f *protocol.Frame) {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// awaitFrame reads frames until one of the wanted type arrives,
// skipping heartbeat and other traffic.
func awaitFrame(t *testing.T, conn *websocket.Conn, want protocol.FrameType) *protocol.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if f.Type == want {
			return f
		}
	}
}

// dialApp connects to the app's session endpoint and completes the
// hello exchange for the given browser location.
func dialApp(t *testing.T, ts *httptest.Server, path, query string) (*websocket.Conn, *protocol.ServerHello) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_sync/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := protocol.NewClientHello(path, query)
	writeFrame(t, conn, protocol.NewFrame(protocol.FrameHello, protocol.EncodeClientHello(hello)))

	reply := awaitFrame(t, conn, protocol.FrameHello)
	sh, err := protocol.DecodeServerHello(reply.Payload)
	if err != nil {
		t.Fatalf("decode server hello: %v", err)
	}
	return conn, sh
}

func sendNavReady(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	writeFrame(t, conn, protocol.NewFrame(protocol.FrameNav, protocol.EncodeNav(protocol.NewNavReady())))
}

func sendSet(t *testing.T, conn *websocket.Conn, store, field, value string) {
	t.Helper()
	writeFrame(t, conn, protocol.NewFrame(protocol.FrameSet, protocol.EncodeSet(protocol.NewSetMsg(store, field, value))))
}

func awaitBinding(t *testing.T, bindings <-chan *Binding) *Binding {
	t.Helper()
	select {
	case b := <-bindings:
		if b == nil {
			t.Fatal("store attach failed")
		}
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("session wiring never ran")
		return nil
	}
}

func awaitSynced(t *testing.T, b *Binding) {
	t.Helper()
	select {
	case <-b.Synced():
	case <-time.After(2 * time.Second):
		t.Fatal("binding never synced")
	}
}

func TestApp_FieldEditUpdatesURL(t *testing.T) {
	bindings := make(chan *Binding, 1)
	_, ts := newTestApp(t, Config{}, func(sess *Session, mgr *Manager) {
		globe := NewStore("globe")
		Define(globe, "tags", []string{"Weather"})
		Define(globe, "search", "")

		b, err := mgr.Attach(globe, SyncConfig{Fields: []FieldSpec{
			Field[[]string]("tags"),
			Field[string]("search").Param("q"),
		}})
		if err != nil {
			b = nil
		}
		bindings <- b
	})

	conn, sh := dialApp(t, ts, "/globe", "tags=Point")
	if sh.Status != protocol.HandshakeOK {
		t.Fatalf("handshake status: %v", sh.Status)
	}

	b := awaitBinding(t, bindings)
	sendNavReady(t, conn)
	awaitSynced(t, b)

	// The app's dispatch routes the edit to the globe binding and the
	// accepted value comes back as a URL push patch.
	sendSet(t, conn, "globe", "search", "iss")

	f := awaitFrame(t, conn, protocol.FrameURL)
	p, err := protocol.DecodeURLPatch(f.Payload)
	if err != nil {
		t.Fatalf("decode url patch: %v", err)
	}
	if p.Op != protocol.URLPush {
		t.Errorf("op = %v, want URLPush", p.Op)
	}
	if p.Query != "q=iss&tags=Point" {
		t.Errorf("query = %q, want q=iss&tags=Point", p.Query)
	}
}

func TestApp_EditForUnknownStoreReturnsError(t *testing.T) {
	bindings := make(chan *Binding, 1)
	_, ts := newTestApp(t, Config{}, func(sess *Session, mgr *Manager) {
		globe := NewStore("globe")
		Define(globe, "tags", []string{"Weather"})
		b, _ := mgr.Attach(globe, SyncConfig{Fields: []FieldSpec{
			Field[[]string]("tags"),
		}})
		bindings <- b
	})

	conn, _ := dialApp(t, ts, "/globe", "")
	b := awaitBinding(t, bindings)
	sendNavReady(t, conn)
	awaitSynced(t, b)

	sendSet(t, conn, "settings", "theme", "dark")

	f := awaitFrame(t, conn, protocol.FrameError)
	em, err := protocol.DecodeErrorMessage(f.Payload)
	if err != nil {
		t.Fatalf("decode error message: %v", err)
	}
	if em.Code != protocol.CodeUnknownStore {
		t.Errorf("code = %v, want CodeUnknownStore", em.Code)
	}
	if em.Fatal {
		t.Error("edit rejection must not be fatal")
	}
}

func TestApp_PresetBecomesBaseline(t *testing.T) {
	bindings := make(chan *Binding, 1)
	_, ts := newTestApp(t, Config{
		Presets: Overrides{
			"globe": {"tags": []string{"Label"}},
		},
	}, func(sess *Session, mgr *Manager) {
		globe := NewStore("globe")
		Define(globe, "tags", []string{"Weather"})
		b, _ := mgr.Attach(globe, SyncConfig{Fields: []FieldSpec{
			Field[[]string]("tags"),
		}})
		bindings <- b
	})

	conn, _ := dialApp(t, ts, "/globe", "tags=Point")
	b := awaitBinding(t, bindings)
	sendNavReady(t, conn)
	awaitSynced(t, b)

	// The preset replaced the declared default before the baseline
	// snapshot, so moving the field to the preset value cleans the
	// parameter out of the URL.
	sendSet(t, conn, "globe", "tags", "Label")

	f := awaitFrame(t, conn, protocol.FrameURL)
	p, err := protocol.DecodeURLPatch(f.Payload)
	if err != nil {
		t.Fatalf("decode url patch: %v", err)
	}
	if p.Query != "" {
		t.Errorf("query = %q, want empty after returning to preset baseline", p.Query)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	inbound []string
}

func (r *recordingObserver) InboundDone(store string, applied, recovered int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbound = append(r.inbound, store)
}

func (r *recordingObserver) OutboundDone(store string, set, removed int, pushed bool, elapsed time.Duration) {
}

func (r *recordingObserver) ParamRecovered(store, param string, reason Reason) {}

func TestApp_ObserverSeesEverySession(t *testing.T) {
	obs := &recordingObserver{}
	bindings := make(chan *Binding, 1)
	_, ts := newTestApp(t, Config{Observer: obs}, func(sess *Session, mgr *Manager) {
		view := NewStore("view")
		Define(view, "zoom", 3)
		b, _ := mgr.Attach(view, SyncConfig{Fields: []FieldSpec{
			Field[int]("zoom"),
		}})
		bindings <- b
	})

	conn, _ := dialApp(t, ts, "/view", "zoom=5")
	b := awaitBinding(t, bindings)
	sendNavReady(t, conn)
	awaitSynced(t, b)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.inbound) != 1 || obs.inbound[0] != "view" {
		t.Errorf("observer inbound passes = %v, want [view]", obs.inbound)
	}
}

func TestApp_ShareLinkRoundTrip(t *testing.T) {
	_, ts := newTestApp(t, Config{
		Share: ShareConfig{Enabled: true},
	}, nil)

	body := `{"path":"/globe","query":"tags=Point,Label&zoom=4"}`
	resp, err := http.Post(ts.URL+"/s", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST /s: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /s status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var created struct {
		Code string `json:"code"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(created.URL, "/s/") {
		t.Errorf("url = %q, want /s/ prefix", created.URL)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resolve, err := client.Get(ts.URL + "/s/" + created.Code)
	if err != nil {
		t.Fatalf("GET share link: %v", err)
	}
	defer resolve.Body.Close()
	if resolve.StatusCode != http.StatusFound {
		t.Fatalf("resolve status = %d, want %d", resolve.StatusCode, http.StatusFound)
	}
	if got := resolve.Header.Get("Location"); got != "/globe?tags=Point,Label&zoom=4" {
		t.Errorf("location = %q, want /globe?tags=Point,Label&zoom=4", got)
	}
}

func TestApp_ShareLinksDisabledByDefault(t *testing.T) {
	app, ts := newTestApp(t, Config{}, nil)

	if app.Shares() != nil {
		t.Error("share store allocated with sharing disabled")
	}

	resp, err := http.Post(ts.URL+"/s", "application/json", strings.NewReader(`{"path":"/"}`))
	if err != nil {
		t.Fatalf("POST /s: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("POST /s status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestApp_ClientScriptServed(t *testing.T) {
	_, ts := newTestApp(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/_sync/client.js")
	if err != nil {
		t.Fatalf("GET /_sync/client.js: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("content type = %q, want application/javascript", ct)
	}
}

func TestApp_Accessors(t *testing.T) {
	cfg := Config{Address: ":9999"}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	app := New(cfg)
	t.Cleanup(func() { app.Server().Sessions().Shutdown() })

	if app.Server() == nil {
		t.Error("Server() = nil")
	}
	if app.Config().Address != ":9999" {
		t.Errorf("Config().Address = %q, want :9999", app.Config().Address)
	}
	if app.Logger() == nil {
		t.Error("Logger() = nil")
	}
	if app.Handler() == nil {
		t.Error("Handler() = nil")
	}
}

func TestUnknownStoreError(t *testing.T) {
	err := &UnknownStoreError{Store: "settings"}
	if !strings.Contains(err.Error(), "settings") {
		t.Errorf("error text %q does not name the store", err.Error())
	}
	if err.ErrorCode() != protocol.CodeUnknownStore {
		t.Errorf("code = %v, want CodeUnknownStore", err.ErrorCode())
	}
}
