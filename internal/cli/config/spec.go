package config

import "time"

// CLIConfig is the configuration for recordsvc-cli.
type CLIConfig struct {
	Server   string `koanf:"server" json:"server" yaml:"server"`
	Prefix   string `koanf:"prefix" json:"prefix" yaml:"prefix,omitempty"`
	APIKeyID string `koanf:"api_key_id" json:"api_key_id" yaml:"api_key_id,omitempty"`
	APIKey   string `koanf:"api_key" json:"api_key" yaml:"api_key,omitempty"`
	Output   string `koanf:"output" json:"output" yaml:"output"`

	// CAFile is an extra PEM bundle trusted for https servers.
	CAFile   string        `koanf:"ca_file" json:"ca_file" yaml:"ca_file,omitempty"`
	Insecure bool          `koanf:"insecure" json:"insecure" yaml:"insecure,omitempty"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout" yaml:"-"`
}

// Defaults.
const (
	DefaultServer  = "http://localhost:5080"
	DefaultOutput  = "table"
	DefaultTimeout = 30 * time.Second
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  DefaultServer,
		Output:  DefaultOutput,
		Timeout: DefaultTimeout,
	}
}

// Masked returns a copy safe to print.
func (c *CLIConfig) Masked() *CLIConfig {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "********"
	}
	return &out
}

// MarshalYAML writes Timeout in duration notation ("30s").
func (c CLIConfig) MarshalYAML() (any, error) {
	type plain CLIConfig
	out := struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout,omitempty"`
	}{plain: plain(c)}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout.String()
	}
	return out, nil
}
