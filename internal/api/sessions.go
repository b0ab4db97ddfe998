package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/deviceform"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargemap-core/internal/mapsync"
	"github.com/nerrad567/chargemap-core/internal/search"
)

// Map session message types.
const (
	WSTypeMapOpen         = "map.open"
	WSTypeMapRefresh      = "map.refresh"
	WSTypeMapSearch       = "map.search"
	WSTypeMapSelect       = "map.select"
	WSTypeMapDetails      = "map.details"
	WSTypeMapMarkerClick  = "map.marker_click"
	WSTypeMapCloseDetails = "map.close_details"
	WSTypeMapOutsideClick = "map.outside_click"
	WSTypeMapZoom         = "map.zoom"
	WSTypeMapCharge       = "map.charge"
	WSTypeFormSubmit      = "form.submit"
	WSTypeMapTeardown     = "map.teardown"

	// Server to client.
	WSTypeMapCommand = "map.command"
	WSTypeMapView    = "map.view"
	WSTypeFormResult = "form.result"

	// sessionEventBuffer is the per-session event queue size.
	sessionEventBuffer = 64
)

// Zoom directions accepted by map.zoom.
const (
	ZoomIn  = "in"
	ZoomOut = "out"
)

// MapIDPayload selects a device by id (map.select, map.details).
type MapIDPayload struct {
	ID uint64 `json:"id"`
}

// MapClickPayload reports a marker click (map.marker_click).
type MapClickPayload struct {
	Handle mapsync.Handle `json:"handle"`
}

// MapZoomPayload changes the zoom level (map.zoom).
type MapZoomPayload struct {
	Direction string `json:"direction"`
}

// FormSubmitPayload carries the raw "add charger" form (form.submit).
type FormSubmitPayload struct {
	Fields map[string]string `json:"fields"`
}

// FormResult reports the outcome of a form submission (form.result).
type FormResult struct {
	Device  *device.Device `json:"device,omitempty"`
	Message string         `json:"message,omitempty"`
}

// mapSession drives one browser map from a server-side mapsync.View.
//
// The View and form controller are not goroutine-safe, so every operation
// on them runs on the session's event loop. Fetches and form submissions
// run in their own goroutines and post their results back to the loop.
//
// Session messages are never dropped. If one cannot be queued for the
// client, the session ends instead of letting the browser map drift from
// the View.
type mapSession struct {
	id      string
	srv     *Server
	client  *WSClient
	logger  *logging.Logger
	view    *mapsync.View
	surface *wsSurface
	form    *deviceform.Controller
	loader  *mapsync.Loader
	creator deviceform.Creator

	// sendErr is the first delivery failure. Owned by the event loop.
	sendErr error

	events   chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// serverCreator routes form submissions through Server.createDevice.
type serverCreator struct{ s *Server }

func (c serverCreator) CreateDevice(ctx context.Context, in device.Input) (*device.Device, error) {
	return c.s.createDevice(ctx, in)
}

// openSession creates a session for c and starts its event loop.
func (s *Server) openSession(c *WSClient) *mapSession {
	ctx, cancel := context.WithCancel(s.ctx)
	sess := &mapSession{
		id:      uuid.NewString(),
		srv:     s,
		client:  c,
		creator: serverCreator{s: s},
		events:  make(chan func(), sessionEventBuffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	sess.logger = s.logger.With("session", sess.id)

	sess.view = mapsync.NewView()
	sess.view.SetLogger(sess.logger)
	sess.surface = newWSSurface(func(cmd MapCommand) error {
		return sess.send("", WSTypeMapCommand, cmd)
	})
	sess.form = deviceform.NewController(sess.creator, sess.view)
	sess.form.SetLogger(sess.logger)
	sess.loader = mapsync.NewLoader(s.registry, sess.dispatch, sess.logger)

	go sess.run()
	s.sessions.add(sess)
	s.metrics.SessionOpened()
	sess.logger.Info("map session opened")

	return sess
}

// run is the session's event loop.
func (m *mapSession) run() {
	defer close(m.done)
	for {
		select {
		case fn := <-m.events:
			fn()
		case <-m.ctx.Done():
			m.shutdown()
			return
		}
	}
}

// shutdown tears the view down on the loop goroutine.
func (m *mapSession) shutdown() {
	if err := m.view.Teardown(); err != nil && !errors.Is(err, mapsync.ErrTornDown) {
		m.logger.Warn("map teardown incomplete", "error", err)
	}
	m.sendView()

	m.client.clearSession(m)
	m.srv.sessions.remove(m)
	m.srv.metrics.SessionClosed()
	m.logger.Info("map session closed")
}

// stop ends the session. It is safe to call more than once.
func (m *mapSession) stop() {
	m.stopOnce.Do(m.cancel)
}

// dispatch runs fn on the event loop and then publishes the view.
// Events posted after the session stopped are dropped.
func (m *mapSession) dispatch(fn func()) {
	select {
	case m.events <- func() { fn(); m.sendView() }:
	case <-m.ctx.Done():
	}
}

// do dispatches fn and answers request id with its outcome.
func (m *mapSession) do(id string, fn func() error) {
	m.dispatch(func() {
		if err := fn(); err != nil {
			m.send(id, WSTypeError, map[string]string{"message": err.Error()}) //nolint:errcheck // failure ends the session
			return
		}
		m.send(id, WSTypeResponse, nil) //nolint:errcheck // failure ends the session
	})
}

// sendView publishes the current view snapshot.
func (m *mapSession) sendView() {
	m.send("", WSTypeMapView, m.view.Snapshot()) //nolint:errcheck // failure ends the session
}

// send delivers a session message to the client. The first failure stops
// the session and every later send returns it without trying.
// Must run on the event loop.
func (m *mapSession) send(id, msgType string, payload any) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	data, err := encodeMessage(id, msgType, payload)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msgType, err)
	}
	if err := m.client.sendReliable(data); err != nil {
		m.sendErr = err
		m.logger.Warn("map session client unreachable, closing session", "type", msgType, "error", err)
		m.stop()
		return err
	}
	return nil
}

// handleMapMessage routes a map.* or form.* message to the client's session.
func (c *WSClient) handleMapMessage(msg WSMessage) {
	if c.srv == nil {
		c.sendError(msg.ID, "map sessions not available")
		return
	}

	if msg.Type == WSTypeMapOpen {
		c.openMap(msg)
		return
	}

	sess := c.currentSession()
	if sess == nil {
		c.sendError(msg.ID, "no map session open")
		return
	}
	sess.handle(msg)
}

// openMap starts a session, attaches the browser map and fetches devices.
func (c *WSClient) openMap(msg WSMessage) {
	if c.currentSession() != nil {
		c.sendError(msg.ID, "map session already open")
		return
	}

	sess := c.srv.openSession(c)
	if !c.setSession(sess) {
		sess.stop()
		c.sendError(msg.ID, "map session already open")
		return
	}

	c.sendResponse(msg.ID, WSTypeResponse, map[string]string{"session": sess.id})
	sess.dispatch(func() {
		if err := sess.view.AttachSurface(sess.surface); err != nil {
			sess.logger.Warn("attaching map surface", "error", err)
		}
	})
	sess.loader.Fetch(sess.ctx, sess.view)
}

// handle decodes msg on the reader goroutine and dispatches the operation.
func (m *mapSession) handle(msg WSMessage) { //nolint:gocognit // one case per message type
	switch msg.Type {
	case WSTypeMapRefresh:
		m.loader.Fetch(m.ctx, m.view)
		m.client.sendResponse(msg.ID, WSTypeResponse, nil)

	case WSTypeMapSearch:
		var criteria search.Criteria
		if err := decodePayload(msg.Payload, &criteria); err != nil {
			m.client.sendError(msg.ID, "invalid search payload")
			return
		}
		m.do(msg.ID, func() error { return m.view.SetCriteria(criteria) })

	case WSTypeMapSelect, WSTypeMapDetails:
		var p MapIDPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			m.client.sendError(msg.ID, "invalid device id")
			return
		}
		if msg.Type == WSTypeMapSelect {
			m.do(msg.ID, func() error { return m.view.SelectFromList(p.ID) })
		} else {
			m.do(msg.ID, func() error { return m.view.ShowDetails(p.ID) })
		}

	case WSTypeMapMarkerClick:
		var p MapClickPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			m.client.sendError(msg.ID, "invalid marker click payload")
			return
		}
		m.do(msg.ID, func() error { return m.surface.click(p.Handle) })

	case WSTypeMapCloseDetails:
		m.do(msg.ID, m.view.CloseDetails)

	case WSTypeMapOutsideClick:
		m.do(msg.ID, m.view.ClickOutside)

	case WSTypeMapZoom:
		var p MapZoomPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			m.client.sendError(msg.ID, "invalid zoom payload")
			return
		}
		switch p.Direction {
		case ZoomIn:
			m.do(msg.ID, m.view.ZoomIn)
		case ZoomOut:
			m.do(msg.ID, m.view.ZoomOut)
		default:
			m.client.sendError(msg.ID, fmt.Sprintf("invalid zoom direction %q", p.Direction))
		}

	case WSTypeMapCharge:
		var req mapsync.ChargeRequest
		if err := decodePayload(msg.Payload, &req); err != nil {
			m.client.sendError(msg.ID, "invalid charge payload")
			return
		}
		m.do(msg.ID, func() error { return m.charge(req) })

	case WSTypeFormSubmit:
		var p FormSubmitPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			m.client.sendError(msg.ID, "invalid form payload")
			return
		}
		m.do(msg.ID, func() error { return m.submit(msg.ID, p.Fields) })

	case WSTypeMapTeardown:
		m.client.sendResponse(msg.ID, WSTypeResponse, nil)
		m.stop()
	}
}

// charge accepts a charge request for the selected station.
func (m *mapSession) charge(req mapsync.ChargeRequest) error {
	if err := m.view.RequestCharge(req); err != nil {
		return err
	}

	m.srv.metrics.IncrementChargeRequests()
	if m.srv.influx != nil {
		id, _ := m.view.Selected()
		m.srv.influx.WriteChargeRequest(influxdb.ChargeRequest{
			DeviceID:    id,
			VehicleType: req.DeviceType,
			AmountKWh:   req.AmountKWh,
		})
	}
	return nil
}

// submit validates the form and creates the device in the background.
// The outcome arrives later as a form.result message answering id.
func (m *mapSession) submit(id string, fields map[string]string) error {
	if err := m.form.SetAll(fields); err != nil {
		return err
	}
	in, err := m.form.Begin()
	if err != nil {
		return err
	}

	go func() {
		dev, err := m.creator.CreateDevice(m.ctx, in)
		m.dispatch(func() {
			if err := m.form.Complete(dev, err); err != nil {
				m.send(id, WSTypeFormResult, FormResult{Message: createFailureMessage(err)}) //nolint:errcheck // failure ends the session
				return
			}
			m.send(id, WSTypeFormResult, FormResult{Device: dev}) //nolint:errcheck // failure ends the session
		})
	}()
	return nil
}

// createFailureMessage maps a create error to the message the REST API uses.
func createFailureMessage(err error) string {
	switch {
	case errors.Is(err, device.ErrInvalidDevice):
		return msgInvalidDevice
	case errors.Is(err, device.ErrAnchorFailed):
		return msgAnchorFailed
	default:
		return msgInternal
	}
}

// sessionSet tracks open map sessions so created devices reach all of them.
type sessionSet struct {
	mu       sync.Mutex
	sessions map[*mapSession]struct{}
}

func newSessionSet() *sessionSet {
	return &sessionSet{sessions: make(map[*mapSession]struct{})}
}

func (s *sessionSet) add(m *mapSession) {
	s.mu.Lock()
	s.sessions[m] = struct{}{}
	s.mu.Unlock()
}

func (s *sessionSet) remove(m *mapSession) {
	s.mu.Lock()
	delete(s.sessions, m)
	s.mu.Unlock()
}

func (s *sessionSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionSet) snapshot() []*mapSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*mapSession, 0, len(s.sessions))
	for m := range s.sessions {
		out = append(out, m)
	}
	return out
}

// appendDevice folds d into every open session.
func (s *sessionSet) appendDevice(d device.Device) {
	for _, m := range s.snapshot() {
		m.dispatch(func() {
			if err := m.view.AppendDevice(d); err != nil {
				m.logger.Debug("discarding created device", "id", d.ID, "error", err)
			}
		})
	}
}

// closeAll stops every session and waits for its teardown.
func (s *sessionSet) closeAll() {
	for _, m := range s.snapshot() {
		m.stop()
		<-m.done
	}
}
