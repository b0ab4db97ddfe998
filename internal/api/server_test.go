package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/config"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/metrics"
	"github.com/nerrad567/chargemap-core/internal/ledger"
)

// testEnv bundles a server with the collaborators tests poke at.
type testEnv struct {
	srv      *Server
	registry *device.Registry
	ledger   *ledger.Sequential
	reg      *prometheus.Registry
}

// testServer creates a Server over the default two-device seed with a
// deterministic ledger and a private Prometheus registry.
func testServer(t *testing.T) *testEnv {
	t.Helper()
	return testServerOnPort(t, 0)
}

func testServerOnPort(t *testing.T, port int) *testEnv {
	t.Helper()

	seq := ledger.NewSequential("https://vppscan.com/tx", 200000, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	registry := device.NewRegistry(ledger.Instrument(seq, m), device.DefaultSeed()...)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: port,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:   log,
		Registry: registry,
		Metrics:  m,
		Gatherer: promReg,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	return &testEnv{srv: srv, registry: registry, ledger: seq, reg: promReg}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

// validCreateBody is a well-formed create request for a third charger.
const validCreateBody = `{
	"name": "Charger 3",
	"location": {"latitude": 51.5072, "longitude": -0.1276, "zipCode": "EC1A"},
	"power": "22",
	"manufacturer": "Ohme",
	"model": "Home Pro",
	"status": "Available",
	"firmwareVersion": "1.0.0",
	"softwareVersion": "1.0.0",
	"connectorType": "Type 2",
	"energyCapacity": "22kW"
}`

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decodeBody[map[string]any](t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestMapClient(t *testing.T) {
	env := testServer(t)

	if w := env.do(t, http.MethodGet, "/map", ""); w.Code != http.StatusMovedPermanently {
		t.Errorf("GET /map status = %d, want 301", w.Code)
	}

	w := env.do(t, http.MethodGet, "/map/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /map/ status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("GET /map/ did not serve the map page")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	env.srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/devices", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods = %q, want POST included", got)
	}
}

func TestNotFound(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := decodeBody[Error](t, w); got.Message != msgRouteNotFound {
		t.Errorf("message = %q, want %q", got.Message, msgRouteNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodDelete, "/api/devices/1", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

// ─── Device Endpoint Tests ─────────────────────────────────────────

func TestListDevices_Seed(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	devices := decodeBody[[]device.Device](t, w)
	if len(devices) != 2 {
		t.Fatalf("len = %d, want 2", len(devices))
	}
	if devices[0].ID != 1 || devices[1].ID != 2 {
		t.Errorf("ids = %d,%d, want 1,2", devices[0].ID, devices[1].ID)
	}
	if devices[0].OnChain.TransactionHash != "0xabc123" {
		t.Errorf("receipt hash = %q, want 0xabc123", devices[0].OnChain.TransactionHash)
	}
}

func TestListDevices_IgnoresQuery(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/devices?status=charging", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if devices := decodeBody[[]device.Device](t, w); len(devices) != 2 {
		t.Errorf("got %d devices, want the full registry of 2", len(devices))
	}
}

func TestSearchDevices(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []uint64
	}{
		{"by status", "?status=available", []uint64{1}},
		{"by manufacturer", "?manufacturer=TES", []uint64{2}},
		{"by location", "?location=100", []uint64{2}},
		{"by capacity", "?capacity=48", []uint64{1}},
		{"combined no match", "?status=charging&manufacturer=wallbox", nil},
		{"empty criteria", "?status=", []uint64{1, 2}},
		{"no query", "", []uint64{1, 2}},
	}

	env := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/devices/search"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			devices := decodeBody[[]device.Device](t, w)
			if len(devices) != len(tt.want) {
				t.Fatalf("got %d devices, want %d", len(devices), len(tt.want))
			}
			for i, d := range devices {
				if d.ID != tt.want[i] {
					t.Errorf("devices[%d].ID = %d, want %d", i, d.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCreateDevice(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/devices", validCreateBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", w.Code, w.Body.String())
	}

	dev := decodeBody[device.Device](t, w)
	if dev.ID != 3 {
		t.Errorf("ID = %d, want 3", dev.ID)
	}
	if dev.Status != device.StatusAvailable {
		t.Errorf("Status = %q, want Available", dev.Status)
	}
	if dev.PowerKW != 22 {
		t.Errorf("PowerKW = %v, want 22", dev.PowerKW)
	}
	if dev.OnChain.BlockNumber != 200000 {
		t.Errorf("BlockNumber = %d, want 200000", dev.OnChain.BlockNumber)
	}
	if !strings.HasPrefix(dev.OnChain.ExplorerURL, "https://vppscan.com/tx/") {
		t.Errorf("ExplorerURL = %q", dev.OnChain.ExplorerURL)
	}

	get := env.do(t, http.MethodGet, "/api/devices/3", "")
	if get.Code != http.StatusOK {
		t.Fatalf("GET /api/devices/3 status = %d, want 200", get.Code)
	}
	if got := decodeBody[device.Device](t, get); got.Name != "Charger 3" {
		t.Errorf("Name = %q, want Charger 3", got.Name)
	}
}

func TestCreateDevice_EchoesUnknownStatus(t *testing.T) {
	env := testServer(t)

	body := strings.Replace(validCreateBody, `"Available"`, `"Reserved"`, 1)
	w := env.do(t, http.MethodPost, "/api/devices", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if got := decodeBody[device.Device](t, w); got.Status != "Reserved" {
		t.Errorf("Status = %q, want Reserved", got.Status)
	}
}

func TestCreateDevice_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "non-numeric power",
			body:    strings.Replace(validCreateBody, `"22"`, `"not-a-number"`, 1),
			status:  http.StatusBadRequest,
			message: msgInvalidDevice,
		},
		{
			name:    "missing name",
			body:    strings.Replace(validCreateBody, `"Charger 3"`, `""`, 1),
			status:  http.StatusBadRequest,
			message: msgInvalidDevice,
		},
		{
			name:    "malformed JSON",
			body:    `{"name": `,
			status:  http.StatusBadRequest,
			message: msgInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testServer(t)

			w := env.do(t, http.MethodPost, "/api/devices", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decodeBody[Error](t, w); got.Message != tt.message {
				t.Errorf("message = %q, want %q", got.Message, tt.message)
			}
			if n := env.registry.GetDeviceCount(); n != 2 {
				t.Errorf("device count = %d, want 2", n)
			}
		})
	}
}

func TestCreateDevice_AnchorFailure(t *testing.T) {
	env := testServer(t)
	env.ledger.FailWith(ledger.ErrRejected)

	w := env.do(t, http.MethodPost, "/api/devices", validCreateBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeBody[Error](t, w); got.Message != msgAnchorFailed {
		t.Errorf("message = %q, want %q", got.Message, msgAnchorFailed)
	}
	if n := env.registry.GetDeviceCount(); n != 2 {
		t.Errorf("device count = %d, want 2", n)
	}

	// The next create still gets id 3.
	env.ledger.FailWith(nil)
	w = env.do(t, http.MethodPost, "/api/devices", validCreateBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("retry status = %d, want 201", w.Code)
	}
	if got := decodeBody[device.Device](t, w); got.ID != 3 {
		t.Errorf("retry ID = %d, want 3", got.ID)
	}
}

func TestGetDevice(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"existing", "/api/devices/2", http.StatusOK},
		{"unknown id", "/api/devices/99", http.StatusNotFound},
		{"non-numeric id", "/api/devices/abc", http.StatusBadRequest},
	}

	env := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, "")
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestDeviceStats(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/devices/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	stats := decodeBody[device.Stats](t, w)
	if stats.TotalDevices != 2 {
		t.Errorf("TotalDevices = %d, want 2", stats.TotalDevices)
	}
	if stats.TotalPowerKW != 125 {
		t.Errorf("TotalPowerKW = %v, want 125", stats.TotalPowerKW)
	}
	if stats.ByStatus["Charging"] != 1 {
		t.Errorf("ByStatus[Charging] = %d, want 1", stats.ByStatus["Charging"])
	}
}

// ─── Metrics Tests ─────────────────────────────────────────────────

func TestSystemMetrics(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	m := decodeBody[SystemMetrics](t, w)
	if m.Version != "test" {
		t.Errorf("Version = %q, want test", m.Version)
	}
	if m.Devices.Total != 2 {
		t.Errorf("Devices.Total = %d, want 2", m.Devices.Total)
	}
	if m.MQTT.Connected || m.InfluxDB.Connected {
		t.Error("MQTT and InfluxDB should report disconnected when not configured")
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("Runtime.Goroutines = 0")
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	env := testServer(t)

	if w := env.do(t, http.MethodPost, "/api/devices", validCreateBody); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/devices", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad create status = %d", w.Code)
	}

	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"chargemap_registry_devices_created_total 1",
		"chargemap_registry_devices 3",
		`chargemap_registry_create_failures_total{reason="invalid"} 1`,
		`chargemap_ledger_anchor_duration_seconds_count{outcome="success"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

// ─── Hub Tests ─────────────────────────────────────────────────────

func newTestClient(hub *Hub) *WSClient {
	return &WSClient{
		hub:           hub,
		send:          make(chan []byte, 8),
		subscriptions: make(map[string]struct{}),
	}
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	client := newTestClient(hub)
	client.subscriptions[EventDeviceCreated] = struct{}{}
	hub.Register(client)

	hub.Broadcast(EventDeviceCreated, map[string]any{"id": 3})

	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.EventType != EventDeviceCreated {
			t.Errorf("got type=%s event=%s", msg.Type, msg.EventType)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	client := newTestClient(hub)
	hub.Register(client)

	hub.Broadcast(EventDeviceCreated, nil)

	select {
	case <-client.send:
		t.Fatal("unsubscribed client received a broadcast")
	default:
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Default())
	a, b := newTestClient(hub), newTestClient(hub)

	hub.Register(a)
	hub.Register(b)
	if n := hub.ClientCount(); n != 2 {
		t.Errorf("ClientCount = %d, want 2", n)
	}

	hub.Unregister(a)
	hub.Unregister(a) // second unregister must not double-close
	if n := hub.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}
}

func TestCreateDevice_Broadcast(t *testing.T) {
	env := testServer(t)
	client := newTestClient(env.srv.hub)
	client.subscriptions[EventDeviceCreated] = struct{}{}
	env.srv.hub.Register(client)

	if w := env.do(t, http.MethodPost, "/api/devices", validCreateBody); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	select {
	case data := <-client.send:
		var msg struct {
			EventType string        `json:"event_type"`
			Payload   device.Device `json:"payload"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Payload.ID != 3 {
			t.Errorf("broadcast device id = %d, want 3", msg.Payload.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no device.created broadcast")
	}
}

// ─── Lifecycle Tests ───────────────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() without registry should fail")
	}
}

func TestServer_StartAndClose(t *testing.T) {
	const port = 19180
	env := testServerOnPort(t, port)

	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck before Start should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := env.srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/health", port))
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	if err := env.srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/health", port)); err == nil {
		t.Error("server still accepting connections after Close")
	}
}
