package device

import (
	"fmt"
	"math"
	"strings"

	"github.com/nerrad567/chargemap-core/internal/location"
)

// Validation constants.
const (
	maxNameLength  = 100
	maxFieldLength = 256
)

// ValidateInput checks a create request before any identity is assigned.
// Every failure wraps ErrInvalidDevice.
func ValidateInput(in Input) error {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"location.zipCode", in.Location.ZipCode},
		{"manufacturer", in.Manufacturer},
		{"model", in.Model},
		{"status", string(in.Status)},
		{"firmwareVersion", in.FirmwareVersion},
		{"softwareVersion", in.SoftwareVersion},
		{"connectorType", in.ConnectorType},
		{"energyCapacity", in.EnergyCapacity},
	}
	for _, r := range required {
		if err := validateRequired(r.field, r.value); err != nil {
			return err
		}
	}
	if len(in.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDevice, maxNameLength)
	}
	if len(in.Details) > maxFieldLength {
		return fmt.Errorf("%w: details exceeds %d characters", ErrInvalidDevice, maxFieldLength)
	}

	lat, ok := in.Location.Latitude.Float64()
	if !ok {
		return fmt.Errorf("%w: latitude must be a finite number", ErrInvalidDevice)
	}
	lng, ok := in.Location.Longitude.Float64()
	if !ok {
		return fmt.Errorf("%w: longitude must be a finite number", ErrInvalidDevice)
	}
	if _, ok := in.Power.Float64(); !ok {
		return fmt.Errorf("%w: power must be a finite number", ErrInvalidDevice)
	}

	if err := location.Validate(location.Location{Latitude: lat, Longitude: lng, ZipCode: in.Location.ZipCode}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	return nil
}

// ValidateDevice checks a fully formed device, such as a seed record.
func ValidateDevice(d Device) error {
	if d.ID == 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidDevice)
	}
	required := [][2]string{
		{"name", d.Name},
		{"manufacturer", d.Manufacturer},
		{"model", d.Model},
		{"status", string(d.Status)},
		{"firmwareVersion", d.FirmwareVersion},
		{"softwareVersion", d.SoftwareVersion},
		{"connectorType", d.ConnectorType},
		{"energyCapacity", d.EnergyCapacity},
	}
	for _, r := range required {
		if err := validateRequired(r[0], r[1]); err != nil {
			return err
		}
	}
	if math.IsNaN(d.PowerKW) || math.IsInf(d.PowerKW, 0) {
		return fmt.Errorf("%w: power must be a finite number", ErrInvalidDevice)
	}
	if err := location.Validate(d.Location); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	return nil
}

func validateRequired(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidDevice, field)
	}
	if len(value) > maxFieldLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidDevice, field, maxFieldLength)
	}
	return nil
}
