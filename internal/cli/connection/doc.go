// Package connection is the HTTP client recordsvc-cli uses to talk to
// recordsvc-server.
//
// It attaches API key credentials, applies the configured path prefix to
// record routes, and turns the server's error envelope into *APIError.
package connection
