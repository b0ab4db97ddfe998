package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the registry.
const (
	MeasurementRegistration  = "device_registration"
	MeasurementChargeRequest = "charge_request"
)

// Registration is one anchored device registration.
type Registration struct {
	DeviceID      uint64
	Status        string
	Manufacturer  string
	ConnectorType string
	PowerKW       float64
	BlockNumber   uint64
	AnchoredAt    time.Time
}

// ChargeRequest is a driver's request to charge at a station.
type ChargeRequest struct {
	DeviceID    uint64
	VehicleType string
	AmountKWh   float64
}

// WriteDeviceRegistration records a device registration at the time its
// ledger receipt was issued.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteDeviceRegistration(influxdb.Registration{
//	    DeviceID: 3, Status: "Available", PowerKW: 50, BlockNumber: 123456,
//	    AnchoredAt: rec.Timestamp,
//	})
func (c *Client) WriteDeviceRegistration(r Registration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(registrationPoint(r))
}

// WriteChargeRequest records a charge request made from a map session.
func (c *Client) WriteChargeRequest(r ChargeRequest) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(chargeRequestPoint(r, time.Now()))
}

func registrationPoint(r Registration) *write.Point {
	ts := r.AnchoredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementRegistration,
		map[string]string{
			"device_id":      strconv.FormatUint(r.DeviceID, 10),
			"status":         r.Status,
			"manufacturer":   r.Manufacturer,
			"connector_type": r.ConnectorType,
		},
		map[string]interface{}{
			"power_kw":     r.PowerKW,
			"block_number": r.BlockNumber,
		},
		ts,
	)
}

func chargeRequestPoint(r ChargeRequest, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementChargeRequest,
		map[string]string{
			"device_id":    strconv.FormatUint(r.DeviceID, 10),
			"vehicle_type": r.VehicleType,
		},
		map[string]interface{}{
			"amount_kwh": r.AmountKWh,
		},
		ts,
	)
}
