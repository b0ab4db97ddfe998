// Package mapsync keeps a map, a filtered device list and a single
// selected-device detail view consistent with each other.
//
// A View owns three pieces of state: the full device collection it was
// given, the filtered subsequence produced by search.Filter, and the
// relation from device id to marker Handle on the map Surface. Every change
// to the collection or the criteria recomputes the filtered set from the
// full collection and reconciles markers against it: markers for departed
// devices are removed, markers for new devices are added, and markers for
// devices still present are left alone.
//
// # Lifecycle
//
//	Uninitialized ──(surface attached + devices set)──▶ Ready ──Teardown──▶ TornDown
//
// Filtering and selection are actions taken while Ready. After Teardown
// every call returns ErrTornDown.
//
// # Click correlation
//
// Each marker's click callback is bound to the device id when the marker is
// created, so two stations at the same coordinates still select correctly.
//
// # Concurrency
//
// A View is not safe for concurrent use. It is meant to be owned by a single
// event loop; Loader runs fetches in the background and posts results back
// through the loop's dispatch function. A superseded fetch is not cancelled
// and whichever response is applied last wins.
package mapsync
