// Package config holds recordsvc-cli's persistent settings.
//
// Settings are read from a YAML file (by default cli.yaml under the user's
// config directory) and RECORDSVC_CLI_* environment variables. Command-line
// flags override both.
package config
