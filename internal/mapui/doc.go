// Package mapui serves the browser map client as an embedded asset.
//
// The client is a single page that opens a map session over the API's
// WebSocket, applies map.command messages to a Leaflet map and renders
// map.view snapshots as the station list and detail panel. Every piece of
// map state lives in the server-side session; the page only draws.
//
// Assets are embedded with go:embed so the binary has no runtime file
// dependency. Handler serves them with SPA fallback: an unknown path gets
// index.html.
package mapui
