package location

import (
	"fmt"
	"math"
	"strings"
)

// Coordinate bounds and field limits.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	maxZipCodeLength = 16
)

// ValidateLatitude checks that lat is finite and within [-90, 90].
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: latitude must be a finite number", ErrInvalidLatitude)
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: %g outside [%g, %g]", ErrInvalidLatitude, lat, MinLatitude, MaxLatitude)
	}
	return nil
}

// ValidateLongitude checks that lng is finite and within [-180, 180].
func ValidateLongitude(lng float64) error {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("%w: longitude must be a finite number", ErrInvalidLongitude)
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return fmt.Errorf("%w: %g outside [%g, %g]", ErrInvalidLongitude, lng, MinLongitude, MaxLongitude)
	}
	return nil
}

// ValidateZipCode checks that a zip code is present and of sane length.
// Formats differ by country so no pattern is enforced.
func ValidateZipCode(zip string) error {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return fmt.Errorf("%w: zip code cannot be empty", ErrInvalidZipCode)
	}
	if len(zip) > maxZipCodeLength {
		return fmt.Errorf("%w: zip code exceeds %d characters", ErrInvalidZipCode, maxZipCodeLength)
	}
	return nil
}

// Validate checks every field of a Location.
func Validate(l Location) error {
	if err := ValidateLatitude(l.Latitude); err != nil {
		return err
	}
	if err := ValidateLongitude(l.Longitude); err != nil {
		return err
	}
	return ValidateZipCode(l.ZipCode)
}

// Plottable reports whether a location can be placed on a map. It is the
// read-side check used when rendering records that predate validation.
func Plottable(l Location) bool {
	return ValidateLatitude(l.Latitude) == nil && ValidateLongitude(l.Longitude) == nil
}
