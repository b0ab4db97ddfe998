package location

import "errors"

var (
	// ErrInvalidLatitude is returned when latitude is outside [-90, 90] or not finite.
	ErrInvalidLatitude = errors.New("location: invalid latitude")

	// ErrInvalidLongitude is returned when longitude is outside [-180, 180] or not finite.
	ErrInvalidLongitude = errors.New("location: invalid longitude")

	// ErrInvalidZipCode is returned when the zip code is empty or too long.
	ErrInvalidZipCode = errors.New("location: invalid zip code")
)
