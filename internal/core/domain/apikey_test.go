package domain

import (
	"strings"
	"testing"
	"time"
)

const testKeyID = "rmak-01hqv1234567890abcdefghjkm"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role  string
		valid bool
	}{
		{"metrics", true},
		{"reader", true},
		{"editor", true},
		{"admin", true},
		{"Reader", false}, // Case sensitive
		{"ADMIN", false},
		{"validator", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsValidRole(tt.role); got != tt.valid {
				t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.valid)
			}
		})
	}

	for _, r := range ValidRoles() {
		if !IsValidRole(string(r)) {
			t.Errorf("ValidRoles() contains %q which IsValidRole rejects", r)
		}
	}
}

func TestIsValidKeyStatus(t *testing.T) {
	tests := []struct {
		status string
		valid  bool
	}{
		{"active", true},
		{"disabled", true},
		{"Active", false},
		{"suspended", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsValidKeyStatus(tt.status); got != tt.valid {
				t.Errorf("IsValidKeyStatus(%q) = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		has  bool
	}{
		{RoleMetrics, PermMetricsRead, true},
		{RoleMetrics, PermRecordsRead, false},
		{RoleMetrics, PermRecordsWrite, false},

		{RoleReader, PermRecordsRead, true},
		{RoleReader, PermRecordsWrite, false},
		{RoleReader, PermMetricsRead, false},

		{RoleEditor, PermRecordsRead, true},
		{RoleEditor, PermRecordsWrite, true},
		{RoleEditor, PermMetricsRead, false},

		{RoleAdmin, PermRecordsRead, true},
		{RoleAdmin, PermRecordsWrite, true},
		{RoleAdmin, PermMetricsRead, true},

		{Role("unknown"), PermRecordsRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.has {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.has)
			}
		})
	}
}

func TestGetPermissions(t *testing.T) {
	if perms := GetPermissions(Role("unknown")); perms != nil {
		t.Error("GetPermissions for unknown role should return nil")
	}

	perms := GetPermissions(RoleAdmin)
	if len(perms) != 3 {
		t.Fatalf("GetPermissions(admin) returned %d permissions, want 3", len(perms))
	}
	original := perms[0]
	perms[0] = "modified"
	if GetPermissions(RoleAdmin)[0] != original {
		t.Error("GetPermissions should return a copy, not the original slice")
	}
}

func TestIsValidAPIKeyID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid ID", testKeyID, true},
		{"uppercase normalized", strings.ToUpper(testKeyID), true},
		{"secret prefix", "rmas_01hqv1234567890abcdefghjkm", false},
		{"no prefix", "01hqv1234567890abcdefghjkm", false},
		{"too short", "rmak-01hqv123", false},
		{"too long", testKeyID + "xyz", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAPIKeyID(tt.id); got != tt.valid {
				t.Errorf("IsValidAPIKeyID(%q) = %v, want %v", tt.id, got, tt.valid)
			}
		})
	}

	if got := NormalizeAPIKeyID(strings.ToUpper(testKeyID)); got != testKeyID {
		t.Errorf("NormalizeAPIKeyID() = %q, want %q", got, testKeyID)
	}
	if got := NormalizeAPIKeyID("bogus"); got != "" {
		t.Errorf("NormalizeAPIKeyID(bogus) = %q, want empty", got)
	}
}

func TestMaskAPIKeySecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		expected string
	}{
		{"valid secret", "rmas_ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopq", "rmas_ABC...opq"},
		{"short secret with prefix", "rmas_ABCDEF", "rmas_***"},
		{"very short secret", "short", "***REDACTED***"},
		{"unknown format", "unknownformattoken1234567890abcdef", "***REDACTED***"},
		{"empty", "", "***REDACTED***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKeySecret(tt.secret); got != tt.expected {
				t.Errorf("MaskAPIKeySecret(%q) = %q, want %q", tt.secret, got, tt.expected)
			}
		})
	}
}

func TestNewAPIKey(t *testing.T) {
	key, secret, err := NewAPIKey("ci-reader", RoleReader)
	if err != nil {
		t.Fatalf("NewAPIKey() error = %v", err)
	}

	if key.Name != "ci-reader" {
		t.Errorf("Name = %q, want %q", key.Name, "ci-reader")
	}
	if !IsValidAPIKeyID(key.KeyID) {
		t.Errorf("KeyID = %q, not a valid API Key ID format", key.KeyID)
	}
	if !strings.HasPrefix(key.SecretHash, "$argon2id$v=19$m=16384,t=2,p=2$") {
		t.Errorf("SecretHash = %q, want argon2id PHC string", key.SecretHash)
	}
	if !strings.HasPrefix(secret, APIKeySecretPrefix) {
		t.Errorf("Secret should start with %q, got %q", APIKeySecretPrefix, secret)
	}
	if strings.Contains(key.SecretHash, secret) {
		t.Error("SecretHash must not contain the plaintext secret")
	}
	if key.Role != RoleReader {
		t.Errorf("Role = %q, want %q", key.Role, RoleReader)
	}
	if key.Status != KeyStatusActive {
		t.Errorf("Status = %q, want %q", key.Status, KeyStatusActive)
	}
	if key.RateLimit != DefaultRateLimit {
		t.Errorf("RateLimit = %d, want %d", key.RateLimit, DefaultRateLimit)
	}
	if err := key.Validate(); err != nil {
		t.Errorf("generated key should validate, got %v", err)
	}
}

func TestHashSecret_UniqueSalt(t *testing.T) {
	h1, err := HashSecret("rmas_same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	h2, err := HashSecret("rmas_same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same secret should differ by salt")
	}
}

func TestAPIKey_IsActive(t *testing.T) {
	originalTimeNow := timeNow
	defer func() { timeNow = originalTimeNow }()

	fixedTime := int64(1700000000000)
	timeNow = func() time.Time { return time.UnixMilli(fixedTime) }

	tests := []struct {
		name      string
		status    KeyStatus
		expiresAt int64
		active    bool
	}{
		{"active, no expiration", KeyStatusActive, 0, true},
		{"active, not expired", KeyStatusActive, fixedTime + 3600000, true},
		{"active, expired", KeyStatusActive, fixedTime - 1, false},
		{"disabled", KeyStatusDisabled, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &APIKey{Status: tt.status, ExpiresAt: tt.expiresAt}
			if got := key.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestAPIKey_Touch(t *testing.T) {
	originalTimeNow := timeNow
	defer func() { timeNow = originalTimeNow }()
	timeNow = func() time.Time { return time.UnixMilli(42) }

	key := &APIKey{}
	key.Touch()
	if key.LastUsed != 42 {
		t.Errorf("LastUsed = %d, want 42", key.LastUsed)
	}
}

func TestAPIKey_Validate(t *testing.T) {
	valid := func() *APIKey {
		return &APIKey{
			KeyID:      testKeyID,
			SecretHash: "$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA",
			Role:       RoleEditor,
			Status:     KeyStatusActive,
			RateLimit:  100,
		}
	}

	tests := []struct {
		name    string
		mutate  func(k *APIKey)
		wantErr bool
	}{
		{"valid key", func(k *APIKey) {}, false},
		{"missing key_id", func(k *APIKey) { k.KeyID = "" }, true},
		{"invalid key_id", func(k *APIKey) { k.KeyID = "xyak-nope" }, true},
		{"missing secret_hash", func(k *APIKey) { k.SecretHash = "" }, true},
		{"non argon2 hash", func(k *APIKey) { k.SecretHash = "plaintext" }, true},
		{"invalid role", func(k *APIKey) { k.Role = "root" }, true},
		{"invalid status", func(k *APIKey) { k.Status = "paused" }, true},
		{"rate limit zero", func(k *APIKey) { k.RateLimit = 0 }, true},
		{"rate limit too high", func(k *APIKey) { k.RateLimit = MaxRateLimit + 1 }, true},
		{"allowlist too long", func(k *APIKey) { k.Allowlist = make([]string, MaxAllowlistEntries+1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := valid()
			tt.mutate(key)
			err := key.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsDomainError(err, "RM-AUTH-4001") {
				t.Errorf("Validate() error code = %q, want RM-AUTH-4001", GetErrorCode(err))
			}
		})
	}
}

func TestAPIKey_Clone(t *testing.T) {
	original := &APIKey{
		KeyID:     testKeyID,
		Name:      "orig",
		Allowlist: []string{"10.0.0.0/8"},
	}

	clone := original.Clone()
	clone.Name = "changed"
	clone.Allowlist[0] = "0.0.0.0/0"

	if original.Name != "orig" {
		t.Error("Clone should not share scalar fields")
	}
	if original.Allowlist[0] != "10.0.0.0/8" {
		t.Error("Clone should deep copy Allowlist")
	}

	empty := (&APIKey{}).Clone()
	if empty.Allowlist != nil {
		t.Error("Clone of nil Allowlist should stay nil")
	}
}
