package location

import "fmt"

// Location is the position of a charging station.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	ZipCode   string  `json:"zipCode" yaml:"zip_code"`
}

// LngLat is a coordinate pair in map order (longitude first).
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// LngLat returns the location as a map coordinate.
func (l Location) LngLat() LngLat {
	return LngLat{Lng: l.Longitude, Lat: l.Latitude}
}

// String renders the location as "zip (lat, lng)".
func (l Location) String() string {
	return fmt.Sprintf("%s (%g, %g)", l.ZipCode, l.Latitude, l.Longitude)
}
