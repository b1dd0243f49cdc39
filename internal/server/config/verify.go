package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyHTTP(&cfg.Server.HTTP)...)
	errs = append(errs, verifyAuth(&cfg.Auth)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	if cfg.Metrics.AuthRequired && !(cfg.Metrics.Enabled && cfg.Auth.Enabled) {
		errs = append(errs, errors.New("metrics.auth_required needs metrics.enabled and auth.enabled"))
	}
	return errors.Join(errs...)
}

func verifyHTTP(cfg *HTTPConfig) []error {
	var errs []error

	if cfg.Addr == "" {
		errs = append(errs, errors.New("server.http.addr is required"))
	} else if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.Addr, err))
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	} else if cfg.TLSEnabled() {
		for _, f := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
			if _, err := os.Stat(f); err != nil {
				errs = append(errs, fmt.Errorf("tls file: %w", err))
			}
		}
	}

	if p := cfg.PathPrefix; p != "" {
		if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
			errs = append(errs, fmt.Errorf("server.http.path_prefix %q must start with '/' and not end with '/'", p))
		}
	}

	if err := verifyAllowlist("server.http.trusted_proxies", cfg.TrustedProxies); err != nil {
		errs = append(errs, err)
	}

	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must be positive"))
	}

	return errs
}

func verifyAuth(cfg *AuthSection) []error {
	var errs []error

	if err := verifyAllowlist("auth.allowlist", cfg.Allowlist); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(cfg.Keys))
	for i, kc := range cfg.Keys {
		field := fmt.Sprintf("auth.keys[%d]", i)

		key := kc.APIKey()
		if err := key.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			continue
		}
		if seen[key.KeyID] {
			errs = append(errs, fmt.Errorf("%s: duplicate key_id %s", field, key.KeyID))
		}
		seen[key.KeyID] = true

		if err := verifyAllowlist(field+".allowlist", kc.Allowlist); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.Enabled && len(cfg.Keys) == 0 {
		errs = append(errs, errors.New("auth.enabled requires at least one entry in auth.keys"))
	}

	return errs
}

func verifyAllowlist(field string, entries []string) error {
	for _, entry := range entries {
		if _, err := domain.ParseNetworkEntry(entry); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) []error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", cfg.Format))
	}

	switch strings.ToLower(cfg.Backend) {
	case "", "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q must be slog or zap", cfg.Backend))
	}

	return errs
}

// APIKey converts the provisioned entry into a domain API key.
// A zero rate limit takes the default.
func (k KeyConfig) APIKey() *domain.APIKey {
	key := &domain.APIKey{
		KeyID:      strings.ToLower(k.KeyID),
		Name:       k.Name,
		SecretHash: k.SecretHash,
		Role:       domain.Role(strings.ToLower(k.Role)),
		RateLimit:  k.RateLimit,
		Status:     domain.KeyStatusActive,
	}
	if key.RateLimit == 0 {
		key.RateLimit = domain.DefaultRateLimit
	}
	if len(k.Allowlist) > 0 {
		key.Allowlist = append([]string(nil), k.Allowlist...)
	}
	if !k.ExpiresAt.IsZero() {
		key.ExpiresAt = k.ExpiresAt.UnixMilli()
	}
	if k.Disabled {
		key.Status = domain.KeyStatusDisabled
	}
	return key
}

// APIKeys converts every provisioned entry.
func (a *AuthSection) APIKeys() []*domain.APIKey {
	keys := make([]*domain.APIKey, 0, len(a.Keys))
	for _, kc := range a.Keys {
		keys = append(keys, kc.APIKey())
	}
	return keys
}
