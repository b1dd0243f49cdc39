// Package config provides the recordsvc-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, TLS pair, prefix, log, API keys)
//   - sanitize.go: Log sanitization (hide secret hashes)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// RECORDSVC_ environment variables and flag overrides.
package config
