package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons recorded on the create failure counter.
const (
	ReasonInvalid = "invalid"
	ReasonAnchor  = "anchor"
)

// Anchor outcomes recorded on the anchoring histogram.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors for the registry and map sessions.
type Metrics struct {
	// Devices successfully added to the registry
	DevicesCreated prometheus.Counter

	// Rejected create requests by reason
	CreateFailures *prometheus.CounterVec

	// Current registry size
	Devices prometheus.Gauge

	// Ledger anchoring latency by outcome
	AnchorLatency *prometheus.HistogramVec

	// Open map sessions over WebSocket
	MapSessions prometheus.Gauge

	// Charge requests accepted from map sessions
	ChargeRequests prometheus.Counter
}

// New creates a Metrics instance with every collector registered on reg.
// Go runtime and process collectors are registered too.
func New(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		DevicesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "chargemap_registry_devices_created_total",
			Help: "Total number of devices added to the registry",
		}),

		CreateFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chargemap_registry_create_failures_total",
			Help: "Total rejected device create requests by reason",
		}, []string{"reason"}), // reason: "invalid", "anchor"

		Devices: f.NewGauge(prometheus.GaugeOpts{
			Name: "chargemap_registry_devices",
			Help: "Number of devices currently in the registry",
		}),

		AnchorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chargemap_ledger_anchor_duration_seconds",
			Help:    "Duration of ledger anchoring calls by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"outcome"}),

		MapSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "chargemap_map_sessions",
			Help: "Number of open map sessions",
		}),

		ChargeRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "chargemap_map_charge_requests_total",
			Help: "Total charge requests accepted from map sessions",
		}),
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// IncrementDevicesCreated records a successful create and the new registry size.
func (m *Metrics) IncrementDevicesCreated(total int) {
	if m != nil {
		m.DevicesCreated.Inc()
		m.Devices.Set(float64(total))
	}
}

// IncrementCreateFailure records a rejected create.
func (m *Metrics) IncrementCreateFailure(reason string) {
	if m != nil {
		m.CreateFailures.WithLabelValues(reason).Inc()
	}
}

// SetDeviceCount sets the registry size gauge.
func (m *Metrics) SetDeviceCount(n int) {
	if m != nil {
		m.Devices.Set(float64(n))
	}
}

// ObserveAnchor records the duration of one anchoring call.
func (m *Metrics) ObserveAnchor(outcome string, d time.Duration) {
	if m != nil {
		m.AnchorLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// SessionOpened increments the open map session gauge.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.MapSessions.Inc()
	}
}

// SessionClosed decrements the open map session gauge.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.MapSessions.Dec()
	}
}

// IncrementChargeRequests records an accepted charge request.
func (m *Metrics) IncrementChargeRequests() {
	if m != nil {
		m.ChargeRequests.Inc()
	}
}
