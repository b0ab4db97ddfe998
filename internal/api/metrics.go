package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	MQTT          MQTTMetrics    `json:"mqtt"`
	InfluxDB      InfluxMetrics  `json:"influxdb"`
	Devices       DeviceMetrics  `json:"devices"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
	MapSessions      int `json:"map_sessions"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// InfluxMetrics contains InfluxDB client statistics.
type InfluxMetrics struct {
	Connected bool `json:"connected"`
}

// DeviceMetrics contains device registry statistics.
type DeviceMetrics struct {
	Total          int            `json:"total"`
	TotalPowerKW   float64        `json:"total_power_kw"`
	ByStatus       map[string]int `json:"by_status"`
	ByManufacturer map[string]int `json:"by_manufacturer"`
	ByConnector    map[string]int `json:"by_connector"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			MapSessions:      s.sessions.count(),
		},
	}

	if s.mqtt != nil {
		metrics.MQTT.Connected = s.mqtt.IsConnected()
	}
	if s.influx != nil {
		metrics.InfluxDB.Connected = s.influx.IsConnected()
	}

	regStats := s.registry.GetStats()
	metrics.Devices = DeviceMetrics{
		Total:          regStats.TotalDevices,
		TotalPowerKW:   regStats.TotalPowerKW,
		ByStatus:       make(map[string]int, len(regStats.ByStatus)),
		ByManufacturer: regStats.ByManufacturer,
		ByConnector:    regStats.ByConnector,
	}
	for status, count := range regStats.ByStatus {
		metrics.Devices.ByStatus[string(status)] = count
	}

	writeJSON(w, http.StatusOK, metrics)
}
