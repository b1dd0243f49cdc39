// Package main provides the entry point for recordsvc-server.
//
// The server keeps records in memory and serves them over HTTP or HTTPS:
//
//   - CRUD endpoints under {path_prefix}/records
//   - GET /health and GET /ready for liveness and readiness checks
//   - GET /metrics in Prometheus text format
//
// Usage:
//
//	recordsvc-server [flags]
//	recordsvc-server --config /etc/recordsvc/config.yaml
//
// Settings come from the YAML file, then RECORDSVC_* environment variables.
// Editing the file while the server runs changes the log level only.
package main
