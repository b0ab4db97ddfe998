package device

import (
	"time"

	"github.com/nerrad567/chargemap-core/internal/location"
)

// Status is the operational state of a charging station.
// The known values are listed below; any other non-empty value is
// stored and echoed verbatim.
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusCharging    Status = "Charging"
	StatusUnavailable Status = "Unavailable"
	StatusFaulted     Status = "Faulted"
)

// KnownStatuses returns the statuses the UI offers as filter options.
func KnownStatuses() []Status {
	return []Status{StatusAvailable, StatusCharging, StatusUnavailable, StatusFaulted}
}

// DefaultDetails is stored when a create request omits details.
const DefaultDetails = "Connected"

// OnChainRecord is the ledger receipt attached to a device at creation time.
// It is never modified afterwards.
type OnChainRecord struct {
	TransactionHash string    `json:"transactionHash" yaml:"transaction_hash"`
	Timestamp       time.Time `json:"timestampUtc" yaml:"timestamp_utc"`
	BlockNumber     uint64    `json:"blockNumber" yaml:"block_number"`
	ExplorerURL     string    `json:"explorerUrl" yaml:"explorer_url"`
}

// Device is a registered charging station.
type Device struct {
	ID       uint64            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Location location.Location `json:"location" yaml:"location"`
	Details  string            `json:"details" yaml:"details"`

	// PowerKW is the rated output in kilowatts.
	PowerKW float64 `json:"power" yaml:"power"`

	Manufacturer    string `json:"manufacturer" yaml:"manufacturer"`
	Model           string `json:"model" yaml:"model"`
	Status          Status `json:"status" yaml:"status"`
	FirmwareVersion string `json:"firmwareVersion" yaml:"firmware_version"`
	SoftwareVersion string `json:"softwareVersion" yaml:"software_version"`
	ConnectorType   string `json:"connectorType" yaml:"connector_type"`
	EnergyCapacity  string `json:"energyCapacity" yaml:"energy_capacity"`

	OnChain OnChainRecord `json:"onChain" yaml:"on_chain"`
}

// IsAvailable reports whether the station accepts a new charging session.
func (d Device) IsAvailable() bool {
	return d.Status == StatusAvailable
}

// Title is the "Manufacturer - Model" label used in lists and popups.
func (d Device) Title() string {
	return d.Manufacturer + " - " + d.Model
}

// LocationInput is the location part of a create request.
type LocationInput struct {
	Latitude  Number `json:"latitude"`
	Longitude Number `json:"longitude"`
	ZipCode   string `json:"zipCode"`
}

// Input is the body of a create request.
// String fields decode strictly; numeric fields use Number so that a
// non-numeric value is reported as invalid device data rather than as a
// malformed request.
type Input struct {
	Name            string        `json:"name"`
	Location        LocationInput `json:"location"`
	Details         string        `json:"details,omitempty"`
	Power           Number        `json:"power"`
	Manufacturer    string        `json:"manufacturer"`
	Model           string        `json:"model"`
	Status          Status        `json:"status"`
	FirmwareVersion string        `json:"firmwareVersion"`
	SoftwareVersion string        `json:"softwareVersion"`
	ConnectorType   string        `json:"connectorType"`
	EnergyCapacity  string        `json:"energyCapacity"`
}

// candidate builds the unsaved device for a validated input.
func (in Input) candidate() Device {
	lat, _ := in.Location.Latitude.Float64()
	lng, _ := in.Location.Longitude.Float64()
	power, _ := in.Power.Float64()

	details := in.Details
	if details == "" {
		details = DefaultDetails
	}

	return Device{
		Name: in.Name,
		Location: location.Location{
			Latitude:  lat,
			Longitude: lng,
			ZipCode:   in.Location.ZipCode,
		},
		Details:         details,
		PowerKW:         power,
		Manufacturer:    in.Manufacturer,
		Model:           in.Model,
		Status:          in.Status,
		FirmwareVersion: in.FirmwareVersion,
		SoftwareVersion: in.SoftwareVersion,
		ConnectorType:   in.ConnectorType,
		EnergyCapacity:  in.EnergyCapacity,
	}
}
