package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidDevice) {
//	    // client-correctable input
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrAnchorFailed is returned when the ledger did not accept the record.
	// The registry is left unchanged.
	ErrAnchorFailed = errors.New("device: anchoring failed")

	// ErrInvalidSeed is returned when a seed file cannot be used.
	ErrInvalidSeed = errors.New("device: invalid seed")
)
