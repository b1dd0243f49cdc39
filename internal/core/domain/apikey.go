package domain

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"

	"github.com/yndnr/recordsvc/pkg/token"
)

// API Key identifier prefixes.
const (
	// APIKeyIDPrefix is the prefix for API Key IDs (public, uses hyphen).
	APIKeyIDPrefix = "rmak-"

	// APIKeySecretPrefix is the prefix for API Key secrets (sensitive, uses underscore).
	APIKeySecretPrefix = "rmas_"
)

// Argon2 parameters for API Key secret hashing.
const (
	// Argon2Memory is the memory parameter in KB (16 MB).
	Argon2Memory uint32 = 16384

	// Argon2Time is the iteration count.
	Argon2Time uint32 = 2

	// Argon2Parallelism is the parallelism factor.
	Argon2Parallelism uint8 = 2

	// Argon2KeyLen is the output hash length in bytes.
	Argon2KeyLen uint32 = 32

	// Argon2SaltLen is the salt length in bytes.
	Argon2SaltLen = 16
)

// Role defines the permission level of an API key.
type Role string

const (
	// RoleMetrics can only scrape metrics.
	RoleMetrics Role = "metrics"

	// RoleReader can list and fetch records.
	RoleReader Role = "reader"

	// RoleEditor can read and mutate records.
	RoleEditor Role = "editor"

	// RoleAdmin has every permission.
	RoleAdmin Role = "admin"
)

// ValidRoles returns all valid roles.
func ValidRoles() []Role {
	return []Role{RoleMetrics, RoleReader, RoleEditor, RoleAdmin}
}

// IsValidRole checks if a string is a valid role.
func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleMetrics, RoleReader, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// KeyStatus defines the status of an API key.
type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusDisabled KeyStatus = "disabled"
)

// IsValidKeyStatus checks if a string is a valid key status.
func IsValidKeyStatus(s string) bool {
	switch KeyStatus(s) {
	case KeyStatusActive, KeyStatusDisabled:
		return true
	}
	return false
}

// Permission represents an action that can be performed.
type Permission string

const (
	PermRecordsRead  Permission = "records.read"
	PermRecordsWrite Permission = "records.write"
	PermMetricsRead  Permission = "metrics.read"
)

var rolePermissions = map[Role][]Permission{
	RoleMetrics: {PermMetricsRead},
	RoleReader:  {PermRecordsRead},
	RoleEditor:  {PermRecordsRead, PermRecordsWrite},
	RoleAdmin:   {PermRecordsRead, PermRecordsWrite, PermMetricsRead},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// GetPermissions returns a copy of the permissions granted to a role.
func GetPermissions(role Role) []Permission {
	permissions, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	result := make([]Permission, len(permissions))
	copy(result, permissions)
	return result
}

// IsValidAPIKeyID checks if a string is a valid API Key ID format.
// The ID is normalized to lowercase before validation.
func IsValidAPIKeyID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, APIKeyIDPrefix) {
		return false
	}

	// rmak- (5) + ULID (26)
	if len(id) != len(APIKeyIDPrefix)+ulid.EncodedSize {
		return false
	}

	_, err := ulid.Parse(strings.ToUpper(id[len(APIKeyIDPrefix):]))
	return err == nil
}

// NormalizeAPIKeyID lowercases an API Key ID.
// Returns empty string if the ID is invalid.
func NormalizeAPIKeyID(id string) string {
	normalized := strings.ToLower(id)
	if !IsValidAPIKeyID(normalized) {
		return ""
	}
	return normalized
}

// MaskAPIKeySecret masks an API key secret for safe logging.
func MaskAPIKeySecret(secret string) string {
	if len(secret) < 10 || !strings.HasPrefix(secret, APIKeySecretPrefix) {
		return "***REDACTED***"
	}
	body := secret[len(APIKeySecretPrefix):]
	if len(body) > 6 {
		return APIKeySecretPrefix + body[:3] + "..." + body[len(body)-3:]
	}
	return APIKeySecretPrefix + "***"
}

// APIKey is a provisioned credential allowed to call the records API.
// Keys are loaded from configuration; only the secret hash is ever stored.
type APIKey struct {
	// KeyID is the public identifier: rmak-{ulid_lowercase}.
	KeyID string `json:"key_id" yaml:"key_id"`

	Name string `json:"name" yaml:"name"`

	// SecretHash is the Argon2id hash of the secret (never exposed).
	SecretHash string `json:"-" yaml:"-"`

	Role Role `json:"role" yaml:"role"`

	// Allowlist contains IP/CIDR entries. Empty means no IP restriction.
	Allowlist []string `json:"allowlist,omitempty" yaml:"allowlist,omitempty"`

	// RateLimit is the per-key QPS limit.
	RateLimit int `json:"rate_limit" yaml:"rate_limit"`

	// ExpiresAt is the absolute expiration time (Unix MS), 0 = never expires.
	ExpiresAt int64 `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`

	Status KeyStatus `json:"status" yaml:"status"`

	// LastUsed is the last successful authentication (Unix MS).
	LastUsed int64 `json:"last_used,omitempty" yaml:"-"`
}

// APIKey constraints.
const (
	MaxAllowlistEntries = 100
	MinRateLimit        = 1
	MaxRateLimit        = 1000000
	DefaultRateLimit    = 1000
	SecretLength        = 32 // 256 bits
)

// NewAPIKey creates a new APIKey with a generated ID and secret.
// Returns the API key and the plaintext secret (only returned once).
func NewAPIKey(name string, role Role) (*APIKey, string, error) {
	id, err := ulid.New(ulid.Timestamp(timeNow()), rand.Reader)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	plainSecret, err := token.GenerateWithPrefix(APIKeySecretPrefix, SecretLength)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	secretHash, err := HashSecret(plainSecret)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	return &APIKey{
		KeyID:      APIKeyIDPrefix + strings.ToLower(id.String()),
		Name:       name,
		SecretHash: secretHash,
		Role:       role,
		Status:     KeyStatusActive,
		RateLimit:  DefaultRateLimit,
	}, plainSecret, nil
}

// HashSecret computes an Argon2id hash of the secret in PHC format:
// $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
func HashSecret(secret string) (string, error) {
	salt, err := token.GenerateBytes(Argon2SaltLen)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)

	return "$argon2id$v=19$m=16384,t=2,p=2$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(hash), nil
}

// IsExpired returns true if the API key has expired.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == 0 {
		return false
	}
	return currentTimeMillis() > k.ExpiresAt
}

// IsActive returns true if the key is active and not expired.
func (k *APIKey) IsActive() bool {
	return k.Status == KeyStatusActive && !k.IsExpired()
}

// Touch updates the LastUsed timestamp.
func (k *APIKey) Touch() {
	k.LastUsed = currentTimeMillis()
}

// Validate validates the API key fields.
func (k *APIKey) Validate() error {
	var violations []string

	if k.KeyID == "" {
		violations = append(violations, "key_id is required")
	} else if !IsValidAPIKeyID(k.KeyID) {
		violations = append(violations, "key_id format invalid")
	}

	if k.SecretHash == "" {
		violations = append(violations, "secret_hash is required")
	} else if !strings.HasPrefix(k.SecretHash, "$argon2id$") {
		violations = append(violations, "secret_hash must be an argon2id hash")
	}

	if !IsValidRole(string(k.Role)) {
		violations = append(violations, "invalid role")
	}

	if !IsValidKeyStatus(string(k.Status)) {
		violations = append(violations, "invalid status")
	}

	if len(k.Allowlist) > MaxAllowlistEntries {
		violations = append(violations, "allowlist exceeds 100 entries")
	}

	if k.RateLimit < MinRateLimit || k.RateLimit > MaxRateLimit {
		violations = append(violations, "rate_limit must be between 1 and 1,000,000")
	}

	if len(violations) > 0 {
		return ErrAPIKeyValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone creates a deep copy of the API key.
func (k *APIKey) Clone() *APIKey {
	clone := *k
	if k.Allowlist != nil {
		clone.Allowlist = make([]string, len(k.Allowlist))
		copy(clone.Allowlist, k.Allowlist)
	}
	return &clone
}

// currentTimeMillis is a package-level function to enable testing with mock time.
var currentTimeMillis = func() int64 {
	return timeNow().UnixMilli()
}

// timeNow is a hook for testing.
var timeNow = time.Now
