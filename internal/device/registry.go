package device

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Anchorer records a device against the ledger.
// A nil error means the record was accepted and the receipt is valid.
type Anchorer interface {
	Anchor(ctx context.Context, candidate Device) (OnChainRecord, error)
}

// Registry owns the in-memory device collection.
//
// Reads take a snapshot under a read lock. Creates are serialised by a
// separate mutex held across id assignment, anchoring and append, so two
// concurrent creates can never receive the same id and a failed anchor
// leaves nothing behind.
//
// All public methods are thread-safe.
type Registry struct {
	anchor   Anchorer
	devices  []Device
	mu       sync.RWMutex // Protects devices
	createMu sync.Mutex   // Serialises CreateDevice
	logger   Logger
}

// NewRegistry creates a registry holding the given seed devices in order.
// Seed devices are trusted; use LoadSeedFile to validate external seeds.
func NewRegistry(anchor Anchorer, seed ...Device) *Registry {
	devices := make([]Device, len(seed))
	copy(devices, seed)
	return &Registry{
		anchor:  anchor,
		devices: devices,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// ListDevices returns the full collection in insertion order.
// The returned slice is a copy; callers can safely modify it.
func (r *Registry) ListDevices(_ context.Context) ([]Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, len(r.devices))
	copy(devices, r.devices)
	return devices, nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) GetDevice(_ context.Context, id uint64) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.devices {
		if r.devices[i].ID == id {
			d := r.devices[i]
			return &d, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// CreateDevice validates the input, assigns the next id, anchors the
// candidate and appends it.
//
// Errors:
//   - wraps ErrInvalidDevice when validation fails (no id is consumed)
//   - wraps ErrAnchorFailed when the anchorer rejects the record
func (r *Registry) CreateDevice(ctx context.Context, in Input) (*Device, error) {
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	candidate := in.candidate()

	r.createMu.Lock()
	defer r.createMu.Unlock()

	candidate.ID = uint64(r.GetDeviceCount()) + 1

	record, err := r.anchor.Anchor(ctx, candidate)
	if err != nil {
		r.logger.Warn("device anchoring failed", "id", candidate.ID, "name", candidate.Name, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAnchorFailed, err)
	}
	candidate.OnChain = record

	r.mu.Lock()
	r.devices = append(r.devices, candidate)
	r.mu.Unlock()

	r.logger.Info("device created",
		"id", candidate.ID,
		"name", candidate.Name,
		"status", candidate.Status,
		"tx", record.TransactionHash,
	)

	created := candidate
	return &created, nil
}

// GetDeviceCount returns the number of registered devices.
func (r *Registry) GetDeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices   int            `json:"total_devices"`
	TotalPowerKW   float64        `json:"total_power_kw"`
	ByStatus       map[Status]int `json:"by_status"`
	ByManufacturer map[string]int `json:"by_manufacturer"`
	ByConnector    map[string]int `json:"by_connector"`
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDevices:   len(r.devices),
		ByStatus:       make(map[Status]int),
		ByManufacturer: make(map[string]int),
		ByConnector:    make(map[string]int),
	}

	for i := range r.devices {
		d := &r.devices[i]
		stats.TotalPowerKW += d.PowerKW
		stats.ByStatus[d.Status]++
		stats.ByManufacturer[d.Manufacturer]++
		stats.ByConnector[d.ConnectorType]++
	}

	return stats
}
