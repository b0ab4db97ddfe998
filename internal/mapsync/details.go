package mapsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/search"
)

// Details is the detail-panel view model for the selected device.
type Details struct {
	ID             uint64  `json:"id"`
	Title          string  `json:"title"`
	Manufacturer   string  `json:"manufacturer"`
	Model          string  `json:"model"`
	Status         string  `json:"status"`
	EnergyCapacity string  `json:"energyCapacity"`
	ConnectorType  string  `json:"connectorType"`
	PowerKW        float64 `json:"power"`
	Location       string  `json:"location"`
	CanCharge      bool    `json:"canCharge"`
	Receipt        Receipt `json:"receipt"`
}

// Receipt is the ledger part of the detail panel.
type Receipt struct {
	TransactionHash string    `json:"transactionHash"`
	BlockNumber     uint64    `json:"blockNumber"`
	Timestamp       time.Time `json:"timestampUtc"`
	ExplorerURL     string    `json:"explorerUrl"`
}

// DetailsFor builds the detail view model for d.
func DetailsFor(d device.Device) Details {
	return Details{
		ID:             d.ID,
		Title:          d.Title(),
		Manufacturer:   d.Manufacturer,
		Model:          d.Model,
		Status:         string(d.Status),
		EnergyCapacity: d.EnergyCapacity,
		ConnectorType:  d.ConnectorType,
		PowerKW:        d.PowerKW,
		Location:       d.Location.String(),
		CanCharge:      d.IsAvailable(),
		Receipt: Receipt{
			TransactionHash: d.OnChain.TransactionHash,
			BlockNumber:     d.OnChain.BlockNumber,
			Timestamp:       d.OnChain.Timestamp,
			ExplorerURL:     d.OnChain.ExplorerURL,
		},
	}
}

// Details returns the detail panel for the selected device.
func (v *View) Details() (Details, bool) {
	d, ok := v.SelectedDevice()
	if !ok {
		return Details{}, false
	}
	return DetailsFor(d), true
}

// ChargeRequest is what a driver submits to start charging at the
// selected station.
type ChargeRequest struct {
	AmountKWh  float64 `json:"amountKwh"`
	DeviceName string  `json:"deviceName"`
	DeviceType string  `json:"deviceType"`
}

// RequestCharge records a charging request against the selected station.
// Only stations whose status is Available accept one. The request is
// logged; the station's status is not changed.
func (v *View) RequestCharge(req ChargeRequest) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	d, ok := v.SelectedDevice()
	if !ok {
		return ErrNoSelection
	}
	if !d.IsAvailable() {
		return fmt.Errorf("%w: device %d is %s", ErrChargerUnavailable, d.ID, d.Status)
	}
	if req.AmountKWh <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidChargeRequest)
	}
	if strings.TrimSpace(req.DeviceName) == "" || strings.TrimSpace(req.DeviceType) == "" {
		return fmt.Errorf("%w: vehicle name and type are required", ErrInvalidChargeRequest)
	}

	v.logger.Info("charge requested",
		"id", d.ID,
		"amount_kwh", req.AmountKWh,
		"vehicle", req.DeviceName,
		"vehicle_type", req.DeviceType,
	)
	return nil
}

// ListItem is one row of the device list.
type ListItem struct {
	ID             uint64 `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	EnergyCapacity string `json:"energyCapacity"`
}

// Snapshot is the complete presentation state of a View.
type Snapshot struct {
	State    string          `json:"state"`
	Criteria search.Criteria `json:"criteria"`
	Items    []ListItem      `json:"items"`
	Total    int             `json:"total"`
	Markers  int             `json:"markers"`
	Selected *Details        `json:"selected,omitempty"`
}

// Snapshot captures the current list, marker count and selection.
func (v *View) Snapshot() Snapshot {
	items := make([]ListItem, 0, len(v.filtered))
	for _, d := range v.filtered {
		items = append(items, ListItem{
			ID:             d.ID,
			Title:          d.Title(),
			Status:         string(d.Status),
			EnergyCapacity: d.EnergyCapacity,
		})
	}

	snap := Snapshot{
		State:    v.state.String(),
		Criteria: v.criteria,
		Items:    items,
		Total:    len(v.devices),
		Markers:  len(v.markers),
	}
	if d, ok := v.Details(); ok {
		snap.Selected = &d
	}
	return snap
}
