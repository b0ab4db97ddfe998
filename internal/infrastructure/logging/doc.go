// Package logging provides structured logging for ChargeMap Core.
//
// This package wraps Go's standard log/slog package so every component
// (registry, API, map sessions, infrastructure clients) emits the same
// structured records.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("device created", "id", dev.ID)
//	logger.Error("anchoring failed", "error", err)
//
// Never log secrets such as broker passwords or InfluxDB tokens.
package logging
