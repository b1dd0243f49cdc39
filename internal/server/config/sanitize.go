package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Auth.Keys) > 0 {
		sanitized.Auth.Keys = make([]KeyConfig, len(cfg.Auth.Keys))
		copy(sanitized.Auth.Keys, cfg.Auth.Keys)
		for i := range sanitized.Auth.Keys {
			if sanitized.Auth.Keys[i].SecretHash != "" {
				sanitized.Auth.Keys[i].SecretHash = maskSecret(sanitized.Auth.Keys[i].SecretHash)
			}
		}
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
