package mapsync

import (
	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/location"
)

// Handle identifies one rendered marker. Its value is chosen by the Surface
// and is opaque to the View.
type Handle string

// Zoom levels used by the View.
const (
	// FocusZoom is the zoom level used when a device is picked from the list.
	FocusZoom = 14.0

	// ZoomStep is the delta applied by ZoomIn and ZoomOut.
	ZoomStep = 1.0
)

// Popup is the content shown when a marker is opened.
type Popup struct {
	Title          string `json:"title"`
	Status         string `json:"status"`
	EnergyCapacity string `json:"energyCapacity"`
	ConnectorType  string `json:"connectorType"`
	Location       string `json:"location"`
}

// PopupFor builds the popup content for d.
func PopupFor(d device.Device) Popup {
	return Popup{
		Title:          d.Title(),
		Status:         string(d.Status),
		EnergyCapacity: d.EnergyCapacity,
		ConnectorType:  d.ConnectorType,
		Location:       d.Location.String(),
	}
}

// Surface is the map-rendering capability the View drives. It is a sink for
// commands; the View never asks it what is on the map.
type Surface interface {
	// AddMarker places a marker and returns its handle.
	AddMarker(at location.LngLat, popup Popup) (Handle, error)

	// RemoveMarker removes a marker. The handle is not reused afterwards.
	RemoveMarker(h Handle) error

	// FlyTo recentres the map.
	FlyTo(at location.LngLat, zoom float64) error

	// OpenPopup opens the popup attached to a marker.
	OpenPopup(h Handle) error

	// OnMarkerClick registers fn to run when the marker is clicked.
	OnMarkerClick(h Handle, fn func()) error

	// Zoom changes the zoom level by delta.
	Zoom(delta float64) error

	// Close releases the surface.
	Close() error
}
