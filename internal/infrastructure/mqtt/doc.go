// Package mqtt provides MQTT client connectivity for ChargeMap Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing registry events with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is optional. When enabled, every device added to the registry is
// announced on chargemap/registry/device/created/{id}, and chargers in the
// field may register themselves by publishing to chargemap/registry/register.
//
//	ChargeMap Core ↔ MQTT Broker ↔ Chargers / downstream consumers
//
// # Security Considerations
//
//   - TLS should be enabled for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.DeviceCreated(dev.ID), dev)
package mqtt
