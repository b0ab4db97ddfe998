// Package location provides the geographic position of a charging station.
//
// A Location is a latitude/longitude pair plus the postal zip code users
// search by. Coordinates are range-checked once, when a device is written to
// the registry; reads never re-validate.
//
// The map layer wants longitude first, so LngLat converts a Location into
// the ordering map SDKs expect.
package location
