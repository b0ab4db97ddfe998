// Package metrics exposes Prometheus instrumentation for ChargeMap Core.
//
// Metrics are registered against an explicit registerer so tests and the
// running service never share global state:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	router.Handle("/metrics", metrics.Handler(reg))
//
// A nil *Metrics is valid and records nothing.
package metrics
