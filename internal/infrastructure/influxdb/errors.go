package influxdb

import "errors"

// Errors returned by the InfluxDB client.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// The service runs without registration and charge history.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps a failed ping or an unhealthy server at
	// startup.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps asynchronous batch write failures passed to the
	// OnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
