// Package httpserver provides the HTTP/HTTPS server for recordsvc.
//
// It uses the standard library net/http ServeMux for routing:
//
//   - Record endpoints: <prefix>/records, <prefix>/records/{id}
//   - Health endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, RequestID, CORS, RateLimit, Metrics, Audit,
// then Auth and RequirePermission when API keys are enabled.
package httpserver
