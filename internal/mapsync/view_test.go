package mapsync

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/location"
	"github.com/nerrad567/chargemap-core/internal/search"
	"pgregory.net/rapid"
)

// fakeSurface records commands and lets tests click markers.
type fakeSurface struct {
	next    int
	live    map[Handle]location.LngLat
	clicks  map[Handle]func()
	ops     []string
	closed  bool
	zoom    float64
	addErr  error
	flyErr  error
	removed []Handle
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		live:   make(map[Handle]location.LngLat),
		clicks: make(map[Handle]func()),
	}
}

func (f *fakeSurface) AddMarker(at location.LngLat, popup Popup) (Handle, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.next++
	h := Handle(fmt.Sprintf("m%d", f.next))
	f.live[h] = at
	f.ops = append(f.ops, "add "+string(h)+" "+popup.Title)
	return h, nil
}

func (f *fakeSurface) RemoveMarker(h Handle) error {
	if _, ok := f.live[h]; !ok {
		return fmt.Errorf("unknown handle %s", h)
	}
	delete(f.live, h)
	delete(f.clicks, h)
	f.removed = append(f.removed, h)
	f.ops = append(f.ops, "remove "+string(h))
	return nil
}

func (f *fakeSurface) FlyTo(at location.LngLat, zoom float64) error {
	if f.flyErr != nil {
		return f.flyErr
	}
	f.ops = append(f.ops, fmt.Sprintf("fly %g,%g z%g", at.Lng, at.Lat, zoom))
	return nil
}

func (f *fakeSurface) OpenPopup(h Handle) error {
	f.ops = append(f.ops, "popup "+string(h))
	return nil
}

func (f *fakeSurface) OnMarkerClick(h Handle, fn func()) error {
	f.clicks[h] = fn
	return nil
}

func (f *fakeSurface) Zoom(delta float64) error {
	f.zoom += delta
	f.ops = append(f.ops, fmt.Sprintf("zoom %g", delta))
	return nil
}

func (f *fakeSurface) Close() error {
	f.closed = true
	f.ops = append(f.ops, "close")
	return nil
}

func (f *fakeSurface) click(h Handle) {
	if fn, ok := f.clicks[h]; ok {
		fn()
	}
}

// readyView returns a Ready view over the default seed.
func readyView(t *testing.T) (*View, *fakeSurface) {
	t.Helper()
	v := NewView()
	s := newFakeSurface()
	if err := v.AttachSurface(s); err != nil {
		t.Fatalf("AttachSurface() error = %v", err)
	}
	if err := v.SetDevices(device.DefaultSeed()); err != nil {
		t.Fatalf("SetDevices() error = %v", err)
	}
	return v, s
}

func testDevice(id uint64, status device.Status, lat, lng float64) device.Device {
	return device.Device{
		ID:             id,
		Name:           fmt.Sprintf("Charger %d", id),
		Location:       location.Location{Latitude: lat, Longitude: lng, ZipCode: fmt.Sprintf("%05d", id)},
		Manufacturer:   "Maker",
		Model:          fmt.Sprintf("M%d", id),
		Status:         status,
		EnergyCapacity: "22kW",
	}
}

func TestView_Lifecycle(t *testing.T) {
	v := NewView()
	s := newFakeSurface()

	if v.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", v.State())
	}

	// Devices first, surface second: still renders once both exist.
	if err := v.SetDevices(device.DefaultSeed()); err != nil {
		t.Fatalf("SetDevices() error = %v", err)
	}
	if v.State() != StateUninitialized || len(s.live) != 0 {
		t.Fatalf("rendered before surface attached")
	}

	if err := v.AttachSurface(s); err != nil {
		t.Fatalf("AttachSurface() error = %v", err)
	}
	if v.State() != StateReady {
		t.Fatalf("State() = %v, want ready", v.State())
	}
	if v.MarkerCount() != 2 || len(s.live) != 2 {
		t.Errorf("markers = %d (surface %d), want 2", v.MarkerCount(), len(s.live))
	}

	if err := v.AttachSurface(newFakeSurface()); !errors.Is(err, ErrSurfaceAttached) {
		t.Errorf("second AttachSurface() error = %v, want ErrSurfaceAttached", err)
	}
}

func TestView_SeedScenario_FilterAvailable(t *testing.T) {
	v, s := readyView(t)

	if err := v.SetCriteria(search.Criteria{Status: "Available"}); err != nil {
		t.Fatalf("SetCriteria() error = %v", err)
	}

	filtered := v.Filtered()
	if len(filtered) != 1 || filtered[0].Name != "Charger 1" {
		t.Fatalf("Filtered() = %+v, want [Charger 1]", filtered)
	}
	if v.MarkerCount() != 1 || len(s.live) != 1 {
		t.Errorf("markers = %d (surface %d), want 1", v.MarkerCount(), len(s.live))
	}
	if _, ok := v.Marker(2); ok {
		t.Error("Charger 2 still has a marker")
	}
	if len(s.removed) != 1 {
		t.Errorf("removed %d markers, want 1", len(s.removed))
	}
}

func TestView_ReconcileLeavesUnchangedMarkers(t *testing.T) {
	v, s := readyView(t)
	h1, _ := v.Marker(1)

	if err := v.SetCriteria(search.Criteria{Manufacturer: "wall"}); err != nil {
		t.Fatalf("SetCriteria() error = %v", err)
	}
	if got, _ := v.Marker(1); got != h1 {
		t.Errorf("marker for device 1 recreated: %s -> %s", h1, got)
	}

	before := len(s.ops)
	if err := v.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if err := v.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(s.ops) != before {
		t.Errorf("idempotent Reconcile issued commands: %v", s.ops[before:])
	}

	// Clearing the filter only adds the missing marker.
	if err := v.SetCriteria(search.Criteria{}); err != nil {
		t.Fatalf("SetCriteria() error = %v", err)
	}
	if got := s.ops[before:]; len(got) != 1 {
		t.Errorf("ops after clearing filter = %v, want one add", got)
	}
}

func TestView_AppendDevice(t *testing.T) {
	v, s := readyView(t)

	d := testDevice(3, device.StatusAvailable, 51.5, -0.12)
	if err := v.AppendDevice(d); err != nil {
		t.Fatalf("AppendDevice() error = %v", err)
	}
	if v.MarkerCount() != 3 || len(v.Devices()) != 3 {
		t.Fatalf("markers = %d devices = %d, want 3/3", v.MarkerCount(), len(v.Devices()))
	}

	// Appending the same id again (e.g. form result and broadcast) is a no-op.
	before := len(s.ops)
	if err := v.AppendDevice(d); err != nil {
		t.Fatalf("AppendDevice() error = %v", err)
	}
	if len(v.Devices()) != 3 || len(s.ops) != before {
		t.Errorf("duplicate append changed state")
	}
}

func TestView_AppendDevice_RespectsCriteria(t *testing.T) {
	v, _ := readyView(t)
	if err := v.SetCriteria(search.Criteria{Status: "Available"}); err != nil {
		t.Fatalf("SetCriteria() error = %v", err)
	}

	if err := v.AppendDevice(testDevice(3, device.StatusFaulted, 10, 10)); err != nil {
		t.Fatalf("AppendDevice() error = %v", err)
	}
	if len(v.Filtered()) != 1 || v.MarkerCount() != 1 {
		t.Errorf("filtered = %d markers = %d, want 1/1", len(v.Filtered()), v.MarkerCount())
	}
}

func TestView_SetDevices_LastWriteWins(t *testing.T) {
	v, s := readyView(t)

	newer := []device.Device{testDevice(1, device.StatusAvailable, 1, 1)}
	if err := v.SetDevices(newer); err != nil {
		t.Fatalf("SetDevices() error = %v", err)
	}
	if v.MarkerCount() != 1 || len(s.live) != 1 {
		t.Errorf("markers = %d (surface %d), want 1", v.MarkerCount(), len(s.live))
	}
}

func TestView_MarkerClick_CorrelatesByID(t *testing.T) {
	v := NewView()
	s := newFakeSurface()
	_ = v.AttachSurface(s)

	// Two stations at identical coordinates.
	a := testDevice(1, device.StatusAvailable, 40.7128, -74.006)
	b := testDevice(2, device.StatusCharging, 40.7128, -74.006)
	if err := v.SetDevices([]device.Device{a, b}); err != nil {
		t.Fatalf("SetDevices() error = %v", err)
	}

	hb, _ := v.Marker(2)
	s.click(hb)
	if id, ok := v.Selected(); !ok || id != 2 {
		t.Errorf("Selected() = %d, %v; want 2", id, ok)
	}

	ha, _ := v.Marker(1)
	s.click(ha)
	if id, _ := v.Selected(); id != 1 {
		t.Errorf("Selected() = %d, want 1", id)
	}
}

func TestView_SelectFromList(t *testing.T) {
	v, s := readyView(t)
	h2, _ := v.Marker(2)

	before := len(s.ops)
	if err := v.SelectFromList(2); err != nil {
		t.Fatalf("SelectFromList() error = %v", err)
	}

	ops := s.ops[before:]
	want := []string{"fly -74.006,40.7128 z14", "popup " + string(h2)}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
	if id, ok := v.Selected(); !ok || id != 2 {
		t.Errorf("Selected() = %d, %v; want 2", id, ok)
	}

	if err := v.SelectFromList(99); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("SelectFromList(99) error = %v, want ErrUnknownDevice", err)
	}
}

func TestView_SelectFromList_NotReady(t *testing.T) {
	v := NewView()
	_ = v.SetDevices(device.DefaultSeed())
	if err := v.SelectFromList(1); !errors.Is(err, ErrNotReady) {
		t.Errorf("SelectFromList() error = %v, want ErrNotReady", err)
	}
}

func TestView_ShowAndCloseDetails(t *testing.T) {
	v, s := readyView(t)
	before := len(s.ops)

	if err := v.ShowDetails(1); err != nil {
		t.Fatalf("ShowDetails() error = %v", err)
	}
	if len(s.ops) != before {
		t.Errorf("ShowDetails moved the map: %v", s.ops[before:])
	}

	details, ok := v.Details()
	if !ok {
		t.Fatal("Details() ok = false")
	}
	if details.Title != "Wallbox - Pulsar Plus 48A" || !details.CanCharge {
		t.Errorf("Details() = %+v", details)
	}
	if details.Receipt.ExplorerURL != "https://vppscan.com/tx/0xabc123" {
		t.Errorf("Receipt.ExplorerURL = %q", details.Receipt.ExplorerURL)
	}

	if err := v.CloseDetails(); err != nil {
		t.Fatalf("CloseDetails() error = %v", err)
	}
	if _, ok := v.Selected(); ok {
		t.Error("selection not cleared by CloseDetails")
	}

	_ = v.ShowDetails(2)
	if err := v.ClickOutside(); err != nil {
		t.Fatalf("ClickOutside() error = %v", err)
	}
	if _, ok := v.Selected(); ok {
		t.Error("selection not cleared by ClickOutside")
	}

	if err := v.ShowDetails(42); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("ShowDetails(42) error = %v, want ErrUnknownDevice", err)
	}
}

func TestView_SelectionSurvivesRefilter(t *testing.T) {
	v, _ := readyView(t)
	_ = v.ShowDetails(2)

	if err := v.SetCriteria(search.Criteria{Status: "Available"}); err != nil {
		t.Fatalf("SetCriteria() error = %v", err)
	}
	if id, ok := v.Selected(); !ok || id != 2 {
		t.Errorf("Selected() = %d, %v; want 2 to persist", id, ok)
	}
}

func TestView_Zoom(t *testing.T) {
	v, s := readyView(t)

	_ = v.ZoomIn()
	_ = v.ZoomIn()
	_ = v.ZoomOut()
	if s.zoom != 1 {
		t.Errorf("zoom = %g, want 1", s.zoom)
	}

	if err := NewView().ZoomIn(); !errors.Is(err, ErrNotReady) {
		t.Errorf("ZoomIn() without surface error = %v, want ErrNotReady", err)
	}
}

func TestView_Teardown(t *testing.T) {
	v, s := readyView(t)
	_ = v.ShowDetails(1)

	if err := v.Teardown(); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if len(s.live) != 0 {
		t.Errorf("%d markers outlived the view", len(s.live))
	}
	if !s.closed {
		t.Error("surface not closed")
	}
	if v.MarkerCount() != 0 {
		t.Errorf("MarkerCount() = %d, want 0", v.MarkerCount())
	}
	if _, ok := v.Selected(); ok {
		t.Error("selection survived teardown")
	}

	calls := map[string]func() error{
		"SetDevices":     func() error { return v.SetDevices(nil) },
		"SetCriteria":    func() error { return v.SetCriteria(search.Criteria{}) },
		"AppendDevice":   func() error { return v.AppendDevice(testDevice(9, "", 0, 0)) },
		"Reconcile":      v.Reconcile,
		"SelectFromList": func() error { return v.SelectFromList(1) },
		"ShowDetails":    func() error { return v.ShowDetails(1) },
		"CloseDetails":   v.CloseDetails,
		"ZoomIn":         v.ZoomIn,
		"Teardown":       v.Teardown,
		"RequestCharge":  func() error { return v.RequestCharge(ChargeRequest{}) },
		"AttachSurface":  func() error { return v.AttachSurface(newFakeSurface()) },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, ErrTornDown) {
			t.Errorf("%s after Teardown error = %v, want ErrTornDown", name, err)
		}
	}
}

func TestView_StaleClickIgnored(t *testing.T) {
	v, s := readyView(t)
	h2, _ := v.Marker(2)
	stale := s.clicks[h2]

	_ = v.SetCriteria(search.Criteria{Status: "Available"})
	stale()

	if _, ok := v.Selected(); ok {
		t.Error("click on removed marker selected a device")
	}
}

func TestView_SkipsInvalidLocation(t *testing.T) {
	v := NewView()
	s := newFakeSurface()
	_ = v.AttachSurface(s)

	bad := testDevice(2, device.StatusAvailable, math.NaN(), 0)
	if err := v.SetDevices([]device.Device{testDevice(1, device.StatusAvailable, 1, 1), bad}); err != nil {
		t.Fatalf("SetDevices() error = %v", err)
	}
	if v.MarkerCount() != 1 {
		t.Errorf("MarkerCount() = %d, want 1", v.MarkerCount())
	}
	if len(v.Filtered()) != 2 {
		t.Errorf("list should still show the device: %d", len(v.Filtered()))
	}
}

func TestView_SurfaceErrorsJoined(t *testing.T) {
	v := NewView()
	s := newFakeSurface()
	s.addErr = errors.New("sdk offline")
	_ = v.AttachSurface(s)

	err := v.SetDevices(device.DefaultSeed())
	if err == nil {
		t.Fatal("SetDevices() error = nil, want surface error")
	}
	if v.MarkerCount() != 0 {
		t.Errorf("MarkerCount() = %d, want 0", v.MarkerCount())
	}

	// Once the surface recovers, a reconcile fills the gap.
	s.addErr = nil
	if err := v.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if v.MarkerCount() != 2 {
		t.Errorf("MarkerCount() = %d, want 2", v.MarkerCount())
	}
}

func TestView_RequestCharge(t *testing.T) {
	v, _ := readyView(t)
	req := ChargeRequest{AmountKWh: 20, DeviceName: "Model 3", DeviceType: "EV"}

	if err := v.RequestCharge(req); !errors.Is(err, ErrNoSelection) {
		t.Errorf("RequestCharge() without selection error = %v, want ErrNoSelection", err)
	}

	_ = v.ShowDetails(2) // Charging
	if err := v.RequestCharge(req); !errors.Is(err, ErrChargerUnavailable) {
		t.Errorf("RequestCharge() on charging station error = %v, want ErrChargerUnavailable", err)
	}

	_ = v.ShowDetails(1) // Available
	if err := v.RequestCharge(ChargeRequest{DeviceName: "x", DeviceType: "y"}); !errors.Is(err, ErrInvalidChargeRequest) {
		t.Errorf("RequestCharge() zero amount error = %v, want ErrInvalidChargeRequest", err)
	}
	if err := v.RequestCharge(req); err != nil {
		t.Fatalf("RequestCharge() error = %v", err)
	}

	// Status is not written back.
	d, _ := v.SelectedDevice()
	if d.Status != device.StatusAvailable {
		t.Errorf("Status = %q after charge request, want unchanged", d.Status)
	}
}

func TestView_Snapshot(t *testing.T) {
	v, _ := readyView(t)
	_ = v.SetCriteria(search.Criteria{Status: "Available"})
	_ = v.ShowDetails(1)

	snap := v.Snapshot()
	if snap.State != "ready" || snap.Total != 2 || snap.Markers != 1 {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if len(snap.Items) != 1 || snap.Items[0].Title != "Wallbox - Pulsar Plus 48A" {
		t.Errorf("Snapshot().Items = %+v", snap.Items)
	}
	if snap.Selected == nil || snap.Selected.ID != 1 {
		t.Errorf("Snapshot().Selected = %+v", snap.Selected)
	}
}

func TestView_MarkerSetMatchesFilter_Property(t *testing.T) {
	statuses := []device.Status{device.StatusAvailable, device.StatusCharging, device.StatusFaulted}

	rapid.Check(t, func(rt *rapid.T) {
		v := NewView()
		s := newFakeSurface()
		_ = v.AttachSurface(s)

		n := rapid.IntRange(0, 15).Draw(rt, "n")
		devices := make([]device.Device, n)
		for i := range devices {
			st := rapid.SampledFrom(statuses).Draw(rt, "status")
			devices[i] = testDevice(uint64(i+1), st, float64(i%90), float64(i%180))
		}
		if err := v.SetDevices(devices); err != nil {
			rt.Fatalf("SetDevices() error = %v", err)
		}

		steps := rapid.IntRange(1, 10).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			c := search.Criteria{Status: rapid.SampledFrom([]string{"", "avail", "charg", "fault", "x"}).Draw(rt, "criteria")}
			if err := v.SetCriteria(c); err != nil {
				rt.Fatalf("SetCriteria() error = %v", err)
			}

			filtered := v.Filtered()
			if v.MarkerCount() != len(filtered) {
				rt.Fatalf("MarkerCount() = %d, want %d", v.MarkerCount(), len(filtered))
			}
			if len(s.live) != len(filtered) {
				rt.Fatalf("surface holds %d markers, want %d (leaked handles)", len(s.live), len(filtered))
			}
			for _, d := range filtered {
				if _, ok := v.Marker(d.ID); !ok {
					rt.Fatalf("device %d in filtered set has no marker", d.ID)
				}
			}
		}
	})
}
