package device

import (
	"fmt"
	"os"
	"time"

	"github.com/nerrad567/chargemap-core/internal/location"
	"gopkg.in/yaml.v3"
)

// DefaultSeed returns the two stations every fresh registry starts with.
func DefaultSeed() []Device {
	return []Device{
		{
			ID:   1,
			Name: "Charger 1",
			Location: location.Location{
				Latitude:  34.0522,
				Longitude: -118.2437,
				ZipCode:   "90001",
			},
			Details:         DefaultDetails,
			PowerKW:         50,
			Manufacturer:    "Wallbox",
			Model:           "Pulsar Plus 48A",
			Status:          StatusAvailable,
			FirmwareVersion: "1.2.4",
			SoftwareVersion: "2.3.1",
			ConnectorType:   "CCS",
			EnergyCapacity:  "48A",
			OnChain: OnChainRecord{
				TransactionHash: "0xabc123",
				Timestamp:       time.Date(2024, 10, 20, 12, 34, 56, 0, time.UTC),
				BlockNumber:     123456,
				ExplorerURL:     "https://vppscan.com/tx/0xabc123",
			},
		},
		{
			ID:   2,
			Name: "Charger 2",
			Location: location.Location{
				Latitude:  40.7128,
				Longitude: -74.0060,
				ZipCode:   "10001",
			},
			Details:         DefaultDetails,
			PowerKW:         75,
			Manufacturer:    "Tesla",
			Model:           "Supercharger V3",
			Status:          StatusCharging,
			FirmwareVersion: "2.1.0",
			SoftwareVersion: "3.0.2",
			ConnectorType:   "CHAdeMO",
			EnergyCapacity:  "250kW",
			OnChain: OnChainRecord{
				TransactionHash: "0xdef456",
				Timestamp:       time.Date(2024, 10, 21, 14, 45, 10, 0, time.UTC),
				BlockNumber:     123789,
				ExplorerURL:     "https://vppscan.com/tx/0xdef456",
			},
		},
	}
}

// seedFile is the on-disk layout of a seed file.
type seedFile struct {
	Devices []Device `yaml:"devices"`
}

// LoadSeedFile reads a YAML seed file.
//
// Devices without an id are numbered by position. Explicit ids must match
// their position (1, 2, 3, ...) so that new devices continue the sequence.
// Missing details default to "Connected" and timestamps are normalised to UTC.
func LoadSeedFile(path string) ([]Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) ([]Device, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrInvalidSeed, err)
	}

	for i := range f.Devices {
		d := &f.Devices[i]
		want := uint64(i) + 1
		if d.ID == 0 {
			d.ID = want
		}
		if d.ID != want {
			return nil, fmt.Errorf("%w: device %d has id %d, want %d", ErrInvalidSeed, i, d.ID, want)
		}
		if d.Details == "" {
			d.Details = DefaultDetails
		}
		d.OnChain.Timestamp = d.OnChain.Timestamp.UTC()
		if err := ValidateDevice(*d); err != nil {
			return nil, fmt.Errorf("%w: device %d: %w", ErrInvalidSeed, d.ID, err)
		}
	}

	return f.Devices, nil
}
