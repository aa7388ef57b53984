// urlstate-bench drives the synchronization server with concurrent
// WebSocket clients sending real protocol frames and waiting for the
// matching URL patch, and reports round-trip latency percentiles,
// throughput, wire sizes, and GC cost.
//
// It is intentionally browserless: it measures
// client send → server decode → assign → outbound diff → patch encode →
// WS write → client read/decode.
//
// Run:
//
//	go run ./cmd/urlstate-bench -profile=fast
//	go run ./cmd/urlstate-bench -clients=200 -duration=30s -rps=5 -fields=50
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/urlstate-go/urlstate"
	"github.com/urlstate-go/urlstate/pkg/protocol"
)

const gib = int64(1024 * 1024 * 1024)

type profile struct {
	Name          string
	Clients       int
	Duration      time.Duration
	RPS           float64
	FieldCount    int
	PayloadBytes  int
	MaxProcs      int
	MemLimitBytes int64
}

var profiles = map[string]profile{
	"fast": {
		Name:         "fast",
		Clients:      50,
		Duration:     10 * time.Second,
		RPS:          2,
		FieldCount:   20,
		PayloadBytes: 24,
	},
	"standard": {
		Name:         "standard",
		Clients:      200,
		Duration:     30 * time.Second,
		RPS:          5,
		FieldCount:   50,
		PayloadBytes: 24,
	},
	"stress": {
		Name:          "stress",
		Clients:       500,
		Duration:      60 * time.Second,
		RPS:           10,
		FieldCount:    100,
		PayloadBytes:  24,
		MaxProcs:      4,
		MemLimitBytes: 2 * gib,
	},
}

type benchConfig struct {
	Profile       string
	Clients       int
	Duration      time.Duration
	RPS           float64
	FieldCount    int
	PayloadBytes  int
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
	EditTimeout   time.Duration
}

type benchCounters struct {
	editsSent     atomic.Uint64
	editsComplete atomic.Uint64
	editBytes     atomic.Uint64
	patchBytes    atomic.Uint64
	patchFrames   atomic.Uint64
	pushTotal     atomic.Uint64
	replaceTotal  atomic.Uint64
}

type benchErrors struct {
	handshakeFailures   atomic.Uint64
	editWriteFailures   atomic.Uint64
	frameDecodeFailures atomic.Uint64
	patchDecodeFailures atomic.Uint64
	serverErrorFrames   atomic.Uint64
	tokenMissing        atomic.Uint64
	totalErrors         atomic.Uint64
}

func main() {
	log.SetFlags(0)

	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}

	debug.SetGCPercent(100)

	app := urlstate.New(urlstate.Config{
		DevMode: true, // bench clients have no Origin anyway
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	app.OnSession(benchWiring(cfg.FieldCount))

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	httpServer := &http.Server{Handler: app}
	go func() {
		_ = httpServer.Serve(ln)
	}()
	defer func() {
		_ = httpServer.Shutdown(context.Background())
		_ = app.Shutdown(context.Background())
	}()

	wsURL := "ws://" + ln.Addr().String() + "/_sync/ws"

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Clients))
	var samples []time.Duration
	var samplesMu sync.Mutex
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samplesMu.Lock()
			samples = append(samples, rtt)
			samplesMu.Unlock()
		}
	}()

	var counters benchCounters
	var errCounts benchErrors

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			if err := runClient(ctx, wsURL, clientID, cfg, &counters, &errCounts, samplesCh); err != nil {
				errCounts.totalErrors.Add(1)
			}
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	samplesMu.Lock()
	latencies := append([]time.Duration(nil), samples...)
	samplesMu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	report := buildReport(cfg, elapsed, latencies, &counters, &errCounts, before, after, beforeMetrics, afterMetrics)

	writeSummary(os.Stderr, report)
	if err := writeJSON(cfg.JSONOutput, report); err != nil {
		log.Fatalf("write json: %v", err)
	}
}

// benchWiring builds the per-session bench store: one string field the
// clients edit plus fieldCount int fields that only widen the outbound
// diff, the way a real view store with many synchronized fields would.
func benchWiring(fieldCount int) urlstate.SessionWiring {
	return func(sess *urlstate.Session, mgr *urlstate.Manager) {
		st := urlstate.NewStore("bench")
		urlstate.Define(st, "q", "")

		fields := make([]urlstate.FieldSpec, 0, fieldCount+1)
		fields = append(fields, urlstate.Field[string]("q"))
		for i := 0; i < fieldCount; i++ {
			name := fmt.Sprintf("f%d", i)
			urlstate.Define(st, name, 0)
			fields = append(fields, urlstate.Field[int](name))
		}

		if _, err := mgr.Attach(st, urlstate.SyncConfig{Fields: fields}); err != nil {
			sess.Logger().Error("bench store attach failed", "error", err)
		}
	}
}

func sampleBuffer(clients int) int {
	if clients < 1 {
		return 1024
	}
	buf := clients * 4
	if buf < 1024 {
		buf = 1024
	}
	return buf
}

func parseConfig() (benchConfig, error) {
	profileFlag := flag.String("profile", "standard", "profile: fast|standard|stress")
	clientsFlag := flag.Int("clients", -1, "number of concurrent websocket clients")
	durationFlag := flag.String("duration", "", "benchmark duration, e.g. 30s")
	rpsFlag := flag.Float64("rps", -1, "target edits/sec per client")
	fieldsFlag := flag.Int("fields", -1, "extra synchronized fields per store")
	payloadFlag := flag.Int("payload-bytes", -1, "bytes of token payload per edit")
	maxProcsFlag := flag.Int("max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	memLimitFlag := flag.String("mem-limit", "", "GOMEMLIMIT (e.g. 2GiB)")
	jsonFlag := flag.String("json", "-", "JSON output path ('-' for stdout)")
	flag.Parse()

	name := strings.ToLower(strings.TrimSpace(*profileFlag))
	if name == "" {
		name = "standard"
	}

	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:       base.Name,
		Clients:       base.Clients,
		Duration:      base.Duration,
		RPS:           base.RPS,
		FieldCount:    base.FieldCount,
		PayloadBytes:  base.PayloadBytes,
		MaxProcs:      base.MaxProcs,
		MemLimitBytes: base.MemLimitBytes,
		JSONOutput:    strings.TrimSpace(*jsonFlag),
	}

	if *clientsFlag != -1 {
		cfg.Clients = *clientsFlag
	}
	if *durationFlag != "" {
		d, err := time.ParseDuration(*durationFlag)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid -duration: %w", err)
		}
		cfg.Duration = d
	}
	if *rpsFlag != -1 {
		cfg.RPS = *rpsFlag
	}
	if *fieldsFlag != -1 {
		cfg.FieldCount = *fieldsFlag
	}
	if *payloadFlag != -1 {
		cfg.PayloadBytes = *payloadFlag
	}
	if *maxProcsFlag != -1 {
		cfg.MaxProcs = *maxProcsFlag
	}
	if *memLimitFlag != "" {
		limit, err := parseBytes(*memLimitFlag)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid -mem-limit: %w", err)
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	if cfg.Clients <= 0 {
		return benchConfig{}, errors.New("-clients must be > 0")
	}
	if cfg.Duration <= 0 {
		return benchConfig{}, errors.New("-duration must be > 0")
	}
	if cfg.RPS <= 0 {
		return benchConfig{}, errors.New("-rps must be > 0")
	}
	if cfg.FieldCount < 0 {
		return benchConfig{}, errors.New("-fields must be >= 0")
	}
	if cfg.PayloadBytes <= 0 {
		return benchConfig{}, errors.New("-payload-bytes must be > 0")
	}
	if cfg.MaxProcs < 0 {
		return benchConfig{}, errors.New("-max-procs must be >= 0")
	}
	if cfg.MemLimitBytes < 0 {
		return benchConfig{}, errors.New("-mem-limit must be >= 0")
	}

	cfg.EditTimeout = editTimeout(cfg.RPS)
	return cfg, nil
}

func editTimeout(rps float64) time.Duration {
	if rps <= 0 {
		return 0
	}
	period := time.Duration(float64(time.Second) / rps)
	timeout := period * 10
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return timeout
}

func parseBytes(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, errors.New("empty size")
	}

	var i int
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	numPart := strings.TrimSpace(s[:i])
	suffix := strings.ToLower(strings.TrimSpace(s[i:]))

	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, err
	}

	multiplier := float64(1)
	switch suffix {
	case "", "b":
		multiplier = 1
	case "kb":
		multiplier = 1e3
	case "mb":
		multiplier = 1e6
	case "gb":
		multiplier = 1e9
	case "tb":
		multiplier = 1e12
	case "kib":
		multiplier = 1024
	case "mib":
		multiplier = 1024 * 1024
	case "gib":
		multiplier = 1024 * 1024 * 1024
	case "tib":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size suffix %q", suffix)
	}

	bytes := value * multiplier
	if bytes < 0 {
		return 0, fmt.Errorf("invalid size %q", input)
	}

	return int64(bytes + 0.5), nil
}

func runClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	samples chan<- time.Duration,
) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	hello := protocol.NewClientHello("/bench", "")
	helloFrame := protocol.NewFrame(protocol.FrameHello, protocol.EncodeClientHello(hello))
	if err := conn.WriteMessage(websocket.BinaryMessage, helloFrame.Encode()); err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake write: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake read: %w", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake frame decode: %w", err)
	}
	if frame.Type != protocol.FrameHello {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake: expected FrameHello, got %v", frame.Type)
	}
	sh, err := protocol.DecodeServerHello(frame.Payload)
	if err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake server hello decode: %w", err)
	}
	if sh.Status != protocol.HandshakeOK {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("handshake failed: %s", sh.Status.String())
	}

	ready := protocol.NewFrame(protocol.FrameNav, protocol.EncodeNav(protocol.NewNavReady()))
	if err := conn.WriteMessage(websocket.BinaryMessage, ready.Encode()); err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("navready write: %w", err)
	}

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seq++
		token := makeToken(clientID, seq, cfg.PayloadBytes)

		start := time.Now()

		edit := protocol.NewSetMsg("bench", "q", token)
		editFrame := protocol.NewFrame(protocol.FrameSet, protocol.EncodeSet(edit))
		frameData := editFrame.Encode()
		if err := conn.WriteMessage(websocket.BinaryMessage, frameData); err != nil {
			errCounts.editWriteFailures.Add(1)
			return fmt.Errorf("edit write: %w", err)
		}

		counters.editsSent.Add(1)
		counters.editBytes.Add(uint64(len(frameData)))

		if cfg.EditTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(cfg.EditTimeout))
		}
		editCtx, cancel := context.WithTimeout(ctx, cfg.EditTimeout)
		found, err := waitForToken(editCtx, conn, token, counters, errCounts)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || isTimeout(err) {
				errCounts.tokenMissing.Add(1)
				return fmt.Errorf("token not observed in url patches")
			}
			return fmt.Errorf("wait for token: %w", err)
		}
		if !found {
			errCounts.tokenMissing.Add(1)
			return fmt.Errorf("token not observed in url patches")
		}

		rtt := time.Since(start)
		counters.editsComplete.Add(1)
		samples <- rtt

		elapsed := time.Since(start)
		if sleep := period - elapsed; sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

func waitForToken(
	ctx context.Context,
	conn *websocket.Conn,
	token string,
	counters *benchCounters,
	errCounts *benchErrors,
) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return false, err
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			errCounts.frameDecodeFailures.Add(1)
			return false, err
		}

		switch frame.Type {
		case protocol.FrameURL:
			counters.patchFrames.Add(1)
			counters.patchBytes.Add(uint64(len(msg)))
			p, err := protocol.DecodeURLPatch(frame.Payload)
			if err != nil {
				errCounts.patchDecodeFailures.Add(1)
				return false, err
			}
			switch p.Op {
			case protocol.URLPush:
				counters.pushTotal.Add(1)
			case protocol.URLReplace:
				counters.replaceTotal.Add(1)
			}
			values, err := url.ParseQuery(p.Query)
			if err != nil {
				errCounts.patchDecodeFailures.Add(1)
				return false, err
			}
			if values.Get("q") == token {
				return true, nil
			}

		case protocol.FrameError:
			errCounts.serverErrorFrames.Add(1)
			return false, fmt.Errorf("server error frame")

		default:
			// Ignore control/heartbeat traffic.
		}
	}
}

func makeToken(clientID int, seq uint64, payloadBytes int) string {
	if payloadBytes <= 0 {
		return ""
	}
	seed := (uint64(clientID) << 32) ^ seq
	base := strings.ToLower(strconv.FormatUint(seed, 36))
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	pad := strings.Repeat("x", payloadBytes-len(base))
	return base + pad
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

type runtimeMetricsSnapshot struct {
	cpuTotalSeconds float64
	cpuGCSeconds    float64

	heapAllocsBytes   uint64
	heapAllocsObjects uint64
}

func readRuntimeMetrics() runtimeMetricsSnapshot {
	samples := []metrics.Sample{
		{Name: "/cpu/classes/total:cpu-seconds"},
		{Name: "/cpu/classes/gc/total:cpu-seconds"},
		{Name: "/gc/heap/allocs:bytes"},
		{Name: "/gc/heap/allocs:objects"},
	}
	metrics.Read(samples)

	var out runtimeMetricsSnapshot
	for _, s := range samples {
		switch s.Name {
		case "/cpu/classes/total:cpu-seconds":
			out.cpuTotalSeconds = s.Value.Float64()
		case "/cpu/classes/gc/total:cpu-seconds":
			out.cpuGCSeconds = s.Value.Float64()
		case "/gc/heap/allocs:bytes":
			out.heapAllocsBytes = s.Value.Uint64()
		case "/gc/heap/allocs:objects":
			out.heapAllocsObjects = s.Value.Uint64()
		}
	}
	return out
}

func cpuFraction(after, before runtimeMetricsSnapshot) float64 {
	total := after.cpuTotalSeconds - before.cpuTotalSeconds
	if total <= 0 {
		return 0
	}
	gc := after.cpuGCSeconds - before.cpuGCSeconds
	if gc < 0 {
		return 0
	}
	return gc / total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile       string  `json:"profile"`
	Clients       int     `json:"clients"`
	DurationMS    int64   `json:"duration_ms"`
	RPSPerClient  float64 `json:"rps_per_client"`
	FieldCount    int     `json:"field_count"`
	PayloadBytes  int     `json:"payload_bytes"`
	MaxProcs      int     `json:"max_procs"`
	MemLimitBytes int64   `json:"mem_limit_bytes"`
	EditTimeoutMS int64   `json:"edit_timeout_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	EditsTotal        uint64  `json:"edits_total"`
	EditsPerSec       float64 `json:"edits_per_sec"`
	EditsPerSecClient float64 `json:"edits_per_sec_per_client"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	NumGC         uint32  `json:"num_gc"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	GCCPUFraction float64 `json:"gc_cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type protocolInfo struct {
	EditBytesTotal  uint64  `json:"edit_bytes_total"`
	PatchBytesTotal uint64  `json:"patch_bytes_total"`
	PatchFrames     uint64  `json:"patch_frames_total"`
	PushTotal       uint64  `json:"push_total"`
	ReplaceTotal    uint64  `json:"replace_total"`
	AvgEditBytes    float64 `json:"avg_edit_bytes"`
	AvgPatchBytes   float64 `json:"avg_patch_bytes"`
}

type errorInfo struct {
	TotalErrors         uint64 `json:"total_errors"`
	HandshakeFailures   uint64 `json:"handshake_failures"`
	EditWriteFailures   uint64 `json:"edit_write_failures"`
	FrameDecodeFailures uint64 `json:"frame_decode_failures"`
	PatchDecodeFailures uint64 `json:"patch_decode_failures"`
	ServerErrorFrames   uint64 `json:"server_error_frames"`
	TokenMissing        uint64 `json:"token_missing"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	counters *benchCounters,
	errCounts *benchErrors,
	before runtime.MemStats,
	after runtime.MemStats,
	beforeMetrics runtimeMetricsSnapshot,
	afterMetrics runtimeMetricsSnapshot,
) benchReport {
	editsTotal := counters.editsComplete.Load()
	editsSent := counters.editsSent.Load()
	patchFrames := counters.patchFrames.Load()
	editBytes := counters.editBytes.Load()
	patchBytes := counters.patchBytes.Load()

	elapsedSeconds := math.Max(0.001, elapsed.Seconds())
	editsPerSec := float64(editsTotal) / elapsedSeconds
	editsPerSecClient := editsPerSec / float64(cfg.Clients)

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	avgEditBytes := 0.0
	if editsSent > 0 {
		avgEditBytes = float64(editBytes) / float64(editsSent)
	}
	avgPatchBytes := 0.0
	if patchFrames > 0 {
		avgPatchBytes = float64(patchBytes) / float64(patchFrames)
	}

	pauseTotal := time.Duration(after.PauseTotalNs - before.PauseTotalNs)
	pauseAvg := avgPause(after, before)

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:       cfg.Profile,
			Clients:       cfg.Clients,
			DurationMS:    cfg.Duration.Milliseconds(),
			RPSPerClient:  cfg.RPS,
			FieldCount:    cfg.FieldCount,
			PayloadBytes:  cfg.PayloadBytes,
			MaxProcs:      cfg.MaxProcs,
			MemLimitBytes: cfg.MemLimitBytes,
			EditTimeoutMS: cfg.EditTimeout.Milliseconds(),
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			EditsTotal:        editsTotal,
			EditsPerSec:       editsPerSec,
			EditsPerSecClient: editsPerSecClient,
		},
		GC: gcInfo{
			AllocMB:       float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:    float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:         after.NumGC - before.NumGC,
			PauseTotalMS:  ms(pauseTotal),
			PauseAvgMS:    ms(pauseAvg),
			GCCPUFraction: cpuFraction(afterMetrics, beforeMetrics),
			AllocsObjects: afterMetrics.heapAllocsObjects - beforeMetrics.heapAllocsObjects,
		},
		Protocol: protocolInfo{
			EditBytesTotal:  editBytes,
			PatchBytesTotal: patchBytes,
			PatchFrames:     patchFrames,
			PushTotal:       counters.pushTotal.Load(),
			ReplaceTotal:    counters.replaceTotal.Load(),
			AvgEditBytes:    avgEditBytes,
			AvgPatchBytes:   avgPatchBytes,
		},
		Errors: errorInfo{
			TotalErrors:         errCounts.totalErrors.Load(),
			HandshakeFailures:   errCounts.handshakeFailures.Load(),
			EditWriteFailures:   errCounts.editWriteFailures.Load(),
			FrameDecodeFailures: errCounts.frameDecodeFailures.Load(),
			PatchDecodeFailures: errCounts.patchDecodeFailures.Load(),
			ServerErrorFrames:   errCounts.serverErrorFrames.Load(),
			TokenMissing:        errCounts.tokenMissing.Load(),
		},
	}
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== urlstate Load Benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-client rate: %.2f edits/s\n", report.Workload.RPSPerClient)
	fmt.Fprintf(w, "Extra fields: %d\n", report.Workload.FieldCount)
	fmt.Fprintf(w, "Payload bytes: %d\n", report.Workload.PayloadBytes)
	if report.Workload.MaxProcs > 0 {
		fmt.Fprintf(w, "GOMAXPROCS cap: %d\n", report.Workload.MaxProcs)
	}
	if report.Workload.MemLimitBytes > 0 {
		fmt.Fprintf(w, "GOMEMLIMIT cap: %.2f GiB\n", float64(report.Workload.MemLimitBytes)/float64(gib))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total edits: %d\n", report.Throughput.EditsTotal)
	fmt.Fprintf(w, "Throughput: %.1f edits/s (%.2f per client)\n", report.Throughput.EditsPerSec, report.Throughput.EditsPerSecClient)
	fmt.Fprintf(w, "Errors: %d\n", report.Errors.TotalErrors)
	fmt.Fprintln(w)

	if report.LatencyMS.Max == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
	} else {
		fmt.Fprintln(w, "RTT (client send -> server -> client receive+decode):")
		fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
		fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
		fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
		fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
		fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Protocol (averages):")
	fmt.Fprintf(w, "  edit bytes:  %.1f\n", report.Protocol.AvgEditBytes)
	fmt.Fprintf(w, "  patch bytes: %.1f\n", report.Protocol.AvgPatchBytes)
	fmt.Fprintf(w, "  pushes: %d, replaces: %d\n", report.Protocol.PushTotal, report.Protocol.ReplaceTotal)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC (process-wide):")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
	fmt.Fprintf(w, "  gc_cpu:    %.2f%%\n", report.GC.GCCPUFraction*100)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func gitCommit() string {
	if val := strings.TrimSpace(os.Getenv("URLSTATE_GIT_COMMIT")); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv("GIT_COMMIT")); val != "" {
		return val
	}
	cmd := exec.Command("git", "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
