// Package api implements the HTTP REST API and WebSocket server for ChargeMap Core.
//
// This package provides:
//   - REST endpoints to list, read and register charging stations
//   - WebSocket hub broadcasting device.created events
//   - Map sessions over WebSocket that drive a browser map from a
//     server-side mapsync.View
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - Prometheus and JSON system metrics
//
// # Architecture
//
// The server sits between map clients and the in-memory device registry.
// A successful registration is fanned out to every WebSocket subscriber,
// every open map session, the MQTT bus and InfluxDB (each optional).
//
// # Error Bodies
//
// Every error response is a JSON object with a single message field, for
// example {"message":"Invalid device data"}.
//
// # Graceful Degradation
//
// MQTT, InfluxDB and metrics are optional. Without them the REST API and
// WebSocket features work unchanged.
package api
