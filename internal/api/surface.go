package api

import (
	"errors"

	"github.com/google/uuid"

	"github.com/nerrad567/chargemap-core/internal/location"
	"github.com/nerrad567/chargemap-core/internal/mapsync"
)

// Map commands sent to the browser in map.command messages.
const (
	MapOpAddMarker    = "add_marker"
	MapOpRemoveMarker = "remove_marker"
	MapOpFlyTo        = "fly_to"
	MapOpOpenPopup    = "open_popup"
	MapOpZoom         = "zoom"
	MapOpClose        = "close"
)

var (
	errSurfaceClosed = errors.New("api: map surface closed")
	errUnknownHandle = errors.New("api: unknown marker handle")
)

// MapCommand is the payload of a map.command message.
type MapCommand struct {
	Op     string           `json:"op"`
	Handle mapsync.Handle   `json:"handle,omitempty"`
	At     *location.LngLat `json:"at,omitempty"`
	Zoom   float64          `json:"zoom,omitempty"`
	Delta  float64          `json:"delta,omitempty"`
	Popup  *mapsync.Popup   `json:"popup,omitempty"`
}

// wsSurface is a mapsync.Surface whose map lives in the browser at the
// other end of a WebSocket. Every call becomes one map.command message;
// marker clicks come back as map.marker_click messages carrying the handle.
// A command that cannot be delivered fails the call, and a marker whose
// add_marker was not delivered gets no handle.
//
// It is owned by a session's event loop and is not safe for concurrent use.
type wsSurface struct {
	emit    func(cmd MapCommand) error
	markers map[mapsync.Handle]func()
	closed  bool
}

func newWSSurface(emit func(cmd MapCommand) error) *wsSurface {
	return &wsSurface{
		emit:    emit,
		markers: make(map[mapsync.Handle]func()),
	}
}

func (s *wsSurface) AddMarker(at location.LngLat, popup mapsync.Popup) (mapsync.Handle, error) {
	if s.closed {
		return "", errSurfaceClosed
	}
	h := mapsync.Handle(uuid.NewString())
	if err := s.emit(MapCommand{Op: MapOpAddMarker, Handle: h, At: &at, Popup: &popup}); err != nil {
		return "", err
	}
	s.markers[h] = nil
	return h, nil
}

func (s *wsSurface) RemoveMarker(h mapsync.Handle) error {
	if err := s.check(h); err != nil {
		return err
	}
	delete(s.markers, h)
	return s.emit(MapCommand{Op: MapOpRemoveMarker, Handle: h})
}

func (s *wsSurface) FlyTo(at location.LngLat, zoom float64) error {
	if s.closed {
		return errSurfaceClosed
	}
	return s.emit(MapCommand{Op: MapOpFlyTo, At: &at, Zoom: zoom})
}

func (s *wsSurface) OpenPopup(h mapsync.Handle) error {
	if err := s.check(h); err != nil {
		return err
	}
	return s.emit(MapCommand{Op: MapOpOpenPopup, Handle: h})
}

func (s *wsSurface) OnMarkerClick(h mapsync.Handle, fn func()) error {
	if err := s.check(h); err != nil {
		return err
	}
	s.markers[h] = fn
	return nil
}

func (s *wsSurface) Zoom(delta float64) error {
	if s.closed {
		return errSurfaceClosed
	}
	return s.emit(MapCommand{Op: MapOpZoom, Delta: delta})
}

func (s *wsSurface) Close() error {
	if s.closed {
		return errSurfaceClosed
	}
	s.closed = true
	clear(s.markers)
	return s.emit(MapCommand{Op: MapOpClose})
}

// click runs the callback bound to h.
func (s *wsSurface) click(h mapsync.Handle) error {
	if err := s.check(h); err != nil {
		return err
	}
	if fn := s.markers[h]; fn != nil {
		fn()
	}
	return nil
}

func (s *wsSurface) check(h mapsync.Handle) error {
	if s.closed {
		return errSurfaceClosed
	}
	if _, ok := s.markers[h]; !ok {
		return errUnknownHandle
	}
	return nil
}
