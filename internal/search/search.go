// Package search filters device collections for the list and map views.
//
// Filtering is a pure function of the full collection and the criteria. It
// never mutates its input, never fails, and keeps the original order, so
// the list and the map always show the same subsequence.
package search

import (
	"strings"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Criteria is a conjunctive, case-insensitive substring predicate.
// An empty field matches every device.
type Criteria struct {
	// Capacity matches Device.EnergyCapacity.
	Capacity string `json:"capacity,omitempty"`
	// Location matches Device.Location.ZipCode.
	Location string `json:"location,omitempty"`
	// Status matches Device.Status.
	Status string `json:"status,omitempty"`
	// Manufacturer matches Device.Manufacturer.
	Manufacturer string `json:"manufacturer,omitempty"`
}

// IsZero reports whether the criteria match everything.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Capacity) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		strings.TrimSpace(c.Status) == "" &&
		strings.TrimSpace(c.Manufacturer) == ""
}

// Matches reports whether d satisfies every non-empty criterion.
func (c Criteria) Matches(d device.Device) bool {
	return contains(d.EnergyCapacity, c.Capacity) &&
		contains(d.Location.ZipCode, c.Location) &&
		contains(string(d.Status), c.Status) &&
		contains(d.Manufacturer, c.Manufacturer)
}

// Filter returns the devices that match c, in their original order.
// The result is a new slice; devices is not modified.
func Filter(devices []device.Device, c Criteria) []device.Device {
	out := make([]device.Device, 0, len(devices))
	if c.IsZero() {
		return append(out, devices...)
	}
	for _, d := range devices {
		if c.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

func contains(field, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(needle))
}
