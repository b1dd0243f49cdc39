package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCORSOrigin      = "http://localhost:4200"
	DefaultRateLimit       = 1000

	DefaultAuthCacheTTL = 60 * time.Second

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultLogBackend = "slog"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:               DefaultHTTPAddr,
				ReadTimeout:        DefaultReadTimeout,
				WriteTimeout:       DefaultWriteTimeout,
				ShutdownTimeout:    DefaultShutdownTimeout,
				CORSAllowedOrigins: []string{DefaultCORSOrigin},
				RateLimit:          DefaultRateLimit,
				EnableAudit:        true,
			},
		},
		Store: StoreSection{
			SeedSampleData: true,
		},
		Auth: AuthSection{
			CacheTTL: DefaultAuthCacheTTL,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
	}
}
