package mqtt

import "fmt"

// Topic prefixes for the registry's MQTT hierarchy.
const (
	// TopicPrefix is the root of every ChargeMap topic.
	TopicPrefix = "chargemap"

	// TopicPrefixRegistry is the base for device registry topics.
	TopicPrefixRegistry = "chargemap/registry"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "chargemap/system"
)

// Topics provides builders for ChargeMap MQTT topics.
// Using these helpers keeps topic naming consistent across publishers and
// subscribers:
//
//	topic := mqtt.Topics{}.DeviceCreated(3)
//	// Returns: "chargemap/registry/device/created/3"
type Topics struct{}

// =============================================================================
// Registry Topics
// =============================================================================

// DeviceCreated returns the topic on which a newly registered device is
// announced.
//
// Example: chargemap/registry/device/created/3
func (Topics) DeviceCreated(id uint64) string {
	return fmt.Sprintf("%s/device/created/%d", TopicPrefixRegistry, id)
}

// RegisterRequest returns the topic chargers publish to when they register
// themselves. The payload has the same shape as a POST /api/devices body.
//
// Example: chargemap/registry/register
func (Topics) RegisterRequest() string {
	return fmt.Sprintf("%s/register", TopicPrefixRegistry)
}

// RegisterRejected returns the topic on which a rejected self-registration
// is reported.
//
// Example: chargemap/registry/register/rejected
func (Topics) RegisterRejected() string {
	return fmt.Sprintf("%s/register/rejected", TopicPrefixRegistry)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: chargemap/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllDeviceCreated returns a pattern matching every device announcement.
//
// Pattern: chargemap/registry/device/created/+
func (Topics) AllDeviceCreated() string {
	return fmt.Sprintf("%s/device/created/+", TopicPrefixRegistry)
}

// AllTopics returns a pattern matching all ChargeMap topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: chargemap/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
