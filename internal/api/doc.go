// Package api implements the HTTP REST API and WebSocket server for the
// camera bridge.
//
// This package provides:
//   - REST endpoints to read and change camera properties
//   - change history, InfluxDB trends and mode listings
//   - a WebSocket hub that broadcasts every applied change and accepts
//     property writes from admin clients
//   - JWT authentication with ticket-based WebSocket auth
//   - middleware for request IDs, logging, recovery, CORS and body limits
//
// # Security
//
// Every route except /health and /auth/login needs a bearer token. Viewers
// may read; writes need the admin role. WebSocket connections use
// single-use tickets so the JWT never appears in a URL.
//
// # Errors
//
// Camera errors map to stable responses: unknown property is 404
// unknown_property, an unparseable value is 400 invalid_value and a value
// the device refuses is 422 device_rejected.
package api
