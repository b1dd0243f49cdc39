package logger

import (
	"log/slog"
	"strings"
)

// Values starting with these prefixes are partially masked wherever they appear.
var sensitiveValuePrefixes = []string{
	"rmas_", // API Key secret (plaintext)
	"$argon2id$",
}

// Attribute keys containing any of these are fully redacted.
// "key_id" is public and exempt.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

var publicKeys = map[string]bool{
	"key_id":     true,
	"api_key_id": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactString returns the value to log for a string attribute and whether
// it was changed. Shared by the slog and zap backends.
func redactString(key, value string) (string, bool) {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix), true
		}
	}
	if value != "" && isSensitiveKey(key) {
		return redactedValue, true
	}
	return value, false
}

// redactSensitive is the slog ReplaceAttr hook.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if v, changed := redactString(a.Key, a.Value.String()); changed {
			return slog.String(a.Key, v)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// maskValue partially masks a sensitive value: prefix + first 3 + "..." + last 3.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// isSensitiveKey reports whether a key name suggests sensitive content.
func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if publicKeys[keyLower] {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
