package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/metrics"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/chargemap-core/internal/search"
)

// EventDeviceCreated is the hub channel carrying newly registered devices.
const EventDeviceCreated = "device.created"

// handleListDevices returns the whole registry as a JSON array.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		writeInternalError(w, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

// handleSearchDevices returns the devices matching the search criteria.
//
// Query parameters (all optional, case-insensitive substring match):
//   - capacity: energy capacity
//   - location: zip code
//   - status: status
//   - manufacturer: manufacturer
func (s *Server) handleSearchDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.ListDevices(r.Context())
	if err != nil {
		writeInternalError(w, msgInternal)
		return
	}

	q := r.URL.Query()
	criteria := search.Criteria{
		Capacity:     q.Get("capacity"),
		Location:     q.Get("location"),
		Status:       q.Get("status"),
		Manufacturer: q.Get("manufacturer"),
	}

	writeJSON(w, http.StatusOK, search.Filter(devices, criteria))
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, msgInvalidRequest)
		return
	}

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, msgDeviceNotFound)
			return
		}
		writeInternalError(w, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice validates, anchors and appends a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var in device.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.metrics.IncrementCreateFailure(metrics.ReasonInvalid)
		writeBadRequest(w, msgInvalidRequest)
		return
	}

	dev, err := s.createDevice(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidDevice):
			writeBadRequest(w, msgInvalidDevice)
		case errors.Is(err, device.ErrAnchorFailed):
			writeInternalError(w, msgAnchorFailed)
		default:
			writeInternalError(w, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleDeviceStats returns registry statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GetStats())
}

// createDevice is the single path by which devices enter the registry,
// whether from REST, a map session form or MQTT self-registration. A
// created device is fanned out to every consumer.
func (s *Server) createDevice(ctx context.Context, in device.Input) (*device.Device, error) {
	dev, err := s.registry.CreateDevice(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidDevice):
			s.metrics.IncrementCreateFailure(metrics.ReasonInvalid)
		case errors.Is(err, device.ErrAnchorFailed):
			s.metrics.IncrementCreateFailure(metrics.ReasonAnchor)
		}
		return nil, err
	}

	s.metrics.IncrementDevicesCreated(s.registry.GetDeviceCount())
	s.announceDevice(*dev)
	return dev, nil
}

// announceDevice fans a created device out to WebSocket subscribers, open
// map sessions, MQTT and InfluxDB.
func (s *Server) announceDevice(dev device.Device) {
	s.hub.Broadcast(EventDeviceCreated, dev)
	s.sessions.appendDevice(dev)

	if s.mqtt != nil {
		if err := s.mqtt.PublishJSON(mqtt.Topics{}.DeviceCreated(dev.ID), dev); err != nil {
			s.logger.Warn("failed to publish device.created", "id", dev.ID, "error", err)
		}
	}

	if s.influx != nil {
		s.influx.WriteDeviceRegistration(influxdb.Registration{
			DeviceID:      dev.ID,
			Status:        string(dev.Status),
			Manufacturer:  dev.Manufacturer,
			ConnectorType: dev.ConnectorType,
			PowerKW:       dev.PowerKW,
			BlockNumber:   dev.OnChain.BlockNumber,
			AnchoredAt:    dev.OnChain.Timestamp,
		})
	}
}

// subscribeRegistrations lets chargers register themselves by publishing a
// create request to chargemap/registry/register. Rejections are reported on
// chargemap/registry/register/rejected.
func (s *Server) subscribeRegistrations() error {
	if s.mqtt == nil {
		return nil // MQTT not configured; self-registration disabled
	}
	topic := mqtt.Topics{}.RegisterRequest()
	s.logger.Info("subscribing to self-registration requests", "topic", topic)

	return s.mqtt.Subscribe(topic, byte(1), func(_ string, payload []byte) error {
		var in device.Input
		if err := json.Unmarshal(payload, &in); err != nil {
			s.rejectRegistration(in.Name, msgInvalidRequest)
			return err
		}

		dev, err := s.createDevice(s.ctx, in)
		if err != nil {
			msg := msgInternal
			switch {
			case errors.Is(err, device.ErrInvalidDevice):
				msg = msgInvalidDevice
			case errors.Is(err, device.ErrAnchorFailed):
				msg = msgAnchorFailed
			}
			s.rejectRegistration(in.Name, msg)
			return err
		}

		s.logger.Info("device self-registered", "id", dev.ID, "name", dev.Name)
		return nil
	})
}

// rejectRegistration reports a failed self-registration.
func (s *Server) rejectRegistration(name, message string) {
	err := s.mqtt.PublishJSON(mqtt.Topics{}.RegisterRejected(), map[string]string{
		"name":    name,
		"message": message,
	})
	if err != nil {
		s.logger.Warn("failed to publish registration rejection", "error", err)
	}
}
