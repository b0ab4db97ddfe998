package mapsync

import "errors"

var (
	// ErrTornDown is returned by every View method after Teardown.
	ErrTornDown = errors.New("mapsync: view torn down")

	// ErrNotReady is returned by map commands issued before a surface is attached.
	ErrNotReady = errors.New("mapsync: map surface not attached")

	// ErrSurfaceAttached is returned when a second surface is attached.
	ErrSurfaceAttached = errors.New("mapsync: surface already attached")

	// ErrUnknownDevice is returned when an id is not in the relevant collection.
	ErrUnknownDevice = errors.New("mapsync: unknown device")

	// ErrNoSelection is returned by actions that need a selected device.
	ErrNoSelection = errors.New("mapsync: no device selected")

	// ErrChargerUnavailable is returned when charging is requested on a
	// station whose status is not Available.
	ErrChargerUnavailable = errors.New("mapsync: charger not available")

	// ErrInvalidChargeRequest is returned when a charge request is incomplete.
	ErrInvalidChargeRequest = errors.New("mapsync: invalid charge request")
)
