// ChargeMap Core - EV charging station registry and live map service.
//
// This is the main entry point. It loads configuration, seeds the device
// registry, wires the simulated ledger, optional MQTT and InfluxDB
// integrations and Prometheus metrics, then serves the REST and WebSocket
// API until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/chargemap-core/internal/api"
	"github.com/nerrad567/chargemap-core/internal/device"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/config"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/metrics"
	"github.com/nerrad567/chargemap-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/chargemap-core/internal/ledger"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ChargeMap Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Metrics
	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	// Ledger and registry
	seed, err := loadSeed(cfg.Registry)
	if err != nil {
		return fmt.Errorf("loading registry seed: %w", err)
	}

	stub := ledger.NewStub(cfg.Ledger.ExplorerBaseURL,
		ledger.WithLatency(cfg.GetLedgerLatency()),
		ledger.WithLogger(log),
	)
	registry := device.NewRegistry(ledger.Instrument(stub, m), seed...)
	registry.SetLogger(log)
	log.Info("device registry initialised",
		"devices", registry.GetDeviceCount(),
		"seed_file", cfg.Registry.SeedFile,
	)

	// MQTT (optional)
	mqttClient := connectMQTT(cfg.MQTT, log)
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	// InfluxDB (optional)
	influxClient := connectInfluxDB(cfg.InfluxDB, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	// API server
	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		MQTT:     mqttClient,
		InfluxDB: influxClient,
		Metrics:  m,
		Gatherer: promRegistry,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (map sessions torn down first)
	// 2. InfluxDB (if connected)
	// 3. MQTT (if connected)

	log.Info("ChargeMap Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CHARGEMAP_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CHARGEMAP_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadSeed returns the devices the registry starts with.
func loadSeed(cfg config.RegistryConfig) ([]device.Device, error) {
	if cfg.SeedFile == "" {
		return device.DefaultSeed(), nil
	}
	return device.LoadSeedFile(cfg.SeedFile)
}

// connectMQTT connects to the broker when enabled. A failed connection is
// logged and the service runs without MQTT.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) *mqtt.Client {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without it", "error", err)
		return nil
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client
}

// connectInfluxDB connects to InfluxDB when enabled. A failed connection is
// logged and the service runs without history.
func connectInfluxDB(cfg config.InfluxDBConfig, log *logging.Logger) *influxdb.Client {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		log.Warn("InfluxDB unavailable, continuing without it", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client
}
