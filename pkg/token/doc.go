// Package token generates random secrets and salts.
//
// Secrets are Base64 RawURL encoded so they can travel in HTTP headers
// without escaping. An optional prefix makes a secret recognisable in
// logs, where the redacting handler can mask it.
package token
