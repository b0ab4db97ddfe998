// Package influxdb provides InfluxDB connectivity for ChargeMap Core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writing and health monitoring.
//
// # Purpose
//
// The registry itself is in-memory. When InfluxDB is enabled, each anchored
// registration and each charge request from a map session is written as a
// point, so the history outlives the process:
//
//   - device_registration: tags device_id, status, manufacturer,
//     connector_type; fields power_kw, block_number
//   - charge_request: tags device_id, vehicle_type; field amount_kwh
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDeviceRegistration(influxdb.Registration{DeviceID: 3, PowerKW: 50})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a
// callback (SetOnError). Connection and health check errors are returned
// directly.
package influxdb
