// Package registryclient is the HTTP client for the ChargeMap registry API.
//
// A Client satisfies mapsync.Source and deviceform.Creator, so a map view
// and the "add charger" form can run against a remote registry exactly as
// they do against the in-process one.
//
// Errors:
//   - *StatusError when the server answers with a non-2xx status; Message
//     carries the server's {"message": ...} body when present
//   - *NetworkError when the request never produced a response
//
// Usage:
//
//	c, err := registryclient.New(registryclient.Config{BaseURL: "http://localhost:8080"})
//	devices, err := c.ListDevices(ctx)
package registryclient
