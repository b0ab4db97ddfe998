package mapsync

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/location"
	"github.com/nerrad567/chargemap-core/internal/search"
)

// Logger defines the logging interface used by the View.
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

// State is the lifecycle state of a View.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateTornDown
)

// String returns the state name used in snapshots and logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View synchronises markers, the filtered list and the selection.
type View struct {
	state State

	surface     Surface
	devices     []device.Device
	haveDevices bool

	criteria search.Criteria
	filtered []device.Device

	markers map[uint64]Handle

	selectedID  uint64
	hasSelected bool

	logger Logger
}

// NewView creates an Uninitialized view.
func NewView() *View {
	return &View{
		markers: make(map[uint64]Handle),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the view.
func (v *View) SetLogger(logger Logger) {
	v.logger = logger
}

// State returns the lifecycle state.
func (v *View) State() State {
	return v.state
}

// AttachSurface hands the view its map. Markers are rendered once the
// device collection is also known.
func (v *View) AttachSurface(s Surface) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if s == nil {
		return fmt.Errorf("%w: nil surface", ErrNotReady)
	}
	if v.surface != nil {
		return ErrSurfaceAttached
	}
	v.surface = s
	return v.advance()
}

// SetDevices replaces the full collection with a fetch result.
func (v *View) SetDevices(devices []device.Device) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	v.devices = slices.Clone(devices)
	v.haveDevices = true
	v.refilter()
	return v.advance()
}

// AppendDevice folds a newly created device into the collection.
// A device whose id is already present is ignored.
func (v *View) AppendDevice(d device.Device) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if v.indexOf(v.devices, d.ID) >= 0 {
		return nil
	}
	v.devices = append(v.devices, d)
	v.haveDevices = true
	v.refilter()
	return v.advance()
}

// SetCriteria replaces the search criteria.
func (v *View) SetCriteria(c search.Criteria) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	v.criteria = c
	v.refilter()
	return v.Reconcile()
}

// advance moves to Ready once both inputs are present, then reconciles.
func (v *View) advance() error {
	if v.state == StateUninitialized && v.surface != nil && v.haveDevices {
		v.state = StateReady
		v.logger.Debug("map view ready", "devices", len(v.devices))
	}
	return v.Reconcile()
}

// refilter recomputes the filtered set from the full collection.
func (v *View) refilter() {
	v.filtered = search.Filter(v.devices, v.criteria)
}

// Reconcile makes the marker set equal to the plottable part of the
// filtered set. Markers for devices still present are not touched, so a
// second call with nothing changed issues no surface commands.
//
// Surface errors do not stop reconciliation; they are joined and returned.
func (v *View) Reconcile() error {
	switch v.state {
	case StateTornDown:
		return ErrTornDown
	case StateUninitialized:
		return nil
	}

	want := make(map[uint64]struct{}, len(v.filtered))
	for _, d := range v.filtered {
		if location.Plottable(d.Location) {
			want[d.ID] = struct{}{}
		}
	}

	var errs []error

	for _, id := range slices.Sorted(maps.Keys(v.markers)) {
		if _, keep := want[id]; keep {
			continue
		}
		if err := v.surface.RemoveMarker(v.markers[id]); err != nil {
			errs = append(errs, fmt.Errorf("removing marker for device %d: %w", id, err))
		}
		delete(v.markers, id)
	}

	for _, d := range v.filtered {
		if _, have := v.markers[d.ID]; have {
			continue
		}
		if _, ok := want[d.ID]; !ok {
			v.logger.Warn("skipping marker with invalid location",
				"id", d.ID, "device", d.Title(), "latitude", d.Location.Latitude, "longitude", d.Location.Longitude)
			continue
		}
		h, err := v.surface.AddMarker(d.Location.LngLat(), PopupFor(d))
		if err != nil {
			errs = append(errs, fmt.Errorf("adding marker for device %d: %w", d.ID, err))
			continue
		}
		v.markers[d.ID] = h
		if err := v.surface.OnMarkerClick(h, v.clickHandler(d.ID)); err != nil {
			errs = append(errs, fmt.Errorf("binding click for device %d: %w", d.ID, err))
		}
	}

	return errors.Join(errs...)
}

// clickHandler binds a marker click to a device id.
func (v *View) clickHandler(id uint64) func() {
	return func() {
		if v.state != StateReady {
			return
		}
		if _, ok := v.markers[id]; !ok {
			return
		}
		v.selectedID, v.hasSelected = id, true
		v.logger.Debug("marker clicked", "id", id)
	}
}

// SelectFromList recentres the map on a listed device, opens its popup and
// selects it.
func (v *View) SelectFromList(id uint64) error {
	if err := v.requireReady(); err != nil {
		return err
	}
	i := v.indexOf(v.filtered, id)
	if i < 0 {
		return fmt.Errorf("%w: %d not in filtered list", ErrUnknownDevice, id)
	}
	d := v.filtered[i]

	if location.Plottable(d.Location) {
		if err := v.surface.FlyTo(d.Location.LngLat(), FocusZoom); err != nil {
			return fmt.Errorf("flying to device %d: %w", id, err)
		}
	}
	if h, ok := v.markers[id]; ok {
		if err := v.surface.OpenPopup(h); err != nil {
			return fmt.Errorf("opening popup for device %d: %w", id, err)
		}
	}
	v.selectedID, v.hasSelected = id, true
	return nil
}

// ShowDetails selects a device without moving the map.
func (v *View) ShowDetails(id uint64) error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if v.indexOf(v.devices, id) < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, id)
	}
	v.selectedID, v.hasSelected = id, true
	return nil
}

// CloseDetails clears the selection.
func (v *View) CloseDetails() error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	v.selectedID, v.hasSelected = 0, false
	return nil
}

// ClickOutside clears the selection when the user clicks away from the
// detail panel.
func (v *View) ClickOutside() error {
	return v.CloseDetails()
}

// ZoomIn zooms the map in by one step.
func (v *View) ZoomIn() error {
	if err := v.requireSurface(); err != nil {
		return err
	}
	return v.surface.Zoom(ZoomStep)
}

// ZoomOut zooms the map out by one step.
func (v *View) ZoomOut() error {
	if err := v.requireSurface(); err != nil {
		return err
	}
	return v.surface.Zoom(-ZoomStep)
}

// Teardown removes every marker, closes the surface and clears the
// selection. All later calls return ErrTornDown.
func (v *View) Teardown() error {
	if v.state == StateTornDown {
		return ErrTornDown
	}

	var errs []error
	if v.surface != nil {
		for _, id := range slices.Sorted(maps.Keys(v.markers)) {
			if err := v.surface.RemoveMarker(v.markers[id]); err != nil {
				errs = append(errs, fmt.Errorf("removing marker for device %d: %w", id, err))
			}
		}
		if err := v.surface.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing surface: %w", err))
		}
	}

	clear(v.markers)
	v.surface = nil
	v.selectedID, v.hasSelected = 0, false
	v.state = StateTornDown
	v.logger.Debug("map view torn down")

	return errors.Join(errs...)
}

// Selected returns the selected device id, if any.
func (v *View) Selected() (uint64, bool) {
	return v.selectedID, v.hasSelected
}

// SelectedDevice returns a copy of the selected device, if any.
func (v *View) SelectedDevice() (device.Device, bool) {
	if !v.hasSelected {
		return device.Device{}, false
	}
	i := v.indexOf(v.devices, v.selectedID)
	if i < 0 {
		return device.Device{}, false
	}
	return v.devices[i], true
}

// Devices returns a copy of the full collection.
func (v *View) Devices() []device.Device {
	return slices.Clone(v.devices)
}

// Filtered returns a copy of the filtered set.
func (v *View) Filtered() []device.Device {
	return slices.Clone(v.filtered)
}

// Criteria returns the active search criteria.
func (v *View) Criteria() search.Criteria {
	return v.criteria
}

// MarkerCount returns the number of live marker handles.
func (v *View) MarkerCount() int {
	return len(v.markers)
}

// Marker returns the handle for a device, if it has one.
func (v *View) Marker(id uint64) (Handle, bool) {
	h, ok := v.markers[id]
	return h, ok
}

func (v *View) requireSurface() error {
	if v.state == StateTornDown {
		return ErrTornDown
	}
	if v.surface == nil {
		return ErrNotReady
	}
	return nil
}

func (v *View) requireReady() error {
	if err := v.requireSurface(); err != nil {
		return err
	}
	if v.state != StateReady {
		return ErrNotReady
	}
	return nil
}

func (v *View) indexOf(devices []device.Device, id uint64) int {
	return slices.IndexFunc(devices, func(d device.Device) bool { return d.ID == id })
}
