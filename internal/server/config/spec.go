package config

import "time"

// ServerConfig is the root configuration for recordsvc-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Store   StoreSection   `koanf:"store"`
	Auth    AuthSection    `koanf:"auth"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// PathPrefix is prepended to the records routes ("" or e.g. "/api").
	PathPrefix string `koanf:"path_prefix"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// TrustedProxies lists the IP/CIDR peers whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the socket peer is the client.
	TrustedProxies []string `koanf:"trusted_proxies"`

	// RateLimit is the per client IP request rate (req/s). 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	EnableAudit bool `koanf:"enable_audit"`
}

// TLSEnabled reports whether both TLS files are configured.
func (c *HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// StoreSection configures the record store.
type StoreSection struct {
	SeedSampleData bool `koanf:"seed_sample_data"`
}

// AuthSection configures API key authentication.
type AuthSection struct {
	Enabled   bool          `koanf:"enabled"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	Allowlist []string      `koanf:"allowlist"`
	Keys      []KeyConfig   `koanf:"keys"`
}

// KeyConfig provisions one API key. Only the argon2id hash of the secret
// appears in configuration; recordsvc-cli apikey generate produces both.
type KeyConfig struct {
	KeyID      string    `koanf:"key_id"`
	Name       string    `koanf:"name"`
	Role       string    `koanf:"role"`
	SecretHash string    `koanf:"secret_hash"`
	RateLimit  int       `koanf:"rate_limit"`
	Allowlist  []string  `koanf:"allowlist"`
	ExpiresAt  time.Time `koanf:"expires_at"`
	Disabled   bool      `koanf:"disabled"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled      bool `koanf:"enabled"`
	AuthRequired bool `koanf:"auth_required"`
}

// LogSection configures logging.
type LogSection struct {
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
	Backend string `koanf:"backend"`
}
