package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
)

// mockAPIKeyRepo is a mock implementation of APIKeyRepository for testing.
type mockAPIKeyRepo struct {
	mu      sync.Mutex
	keys    map[string]*domain.APIKey
	gets    int
	updates int
}

func newMockAPIKeyRepo() *mockAPIKeyRepo {
	return &mockAPIKeyRepo{
		keys: make(map[string]*domain.APIKey),
	}
}

func (m *mockAPIKeyRepo) Get(_ context.Context, keyID string) (*domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	key, ok := m.keys[keyID]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}
	return key.Clone(), nil
}

func (m *mockAPIKeyRepo) Update(_ context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[key.KeyID]; !exists {
		return domain.ErrAPIKeyNotFound
	}
	m.updates++
	m.keys[key.KeyID] = key.Clone()
	return nil
}

func quietLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return l
}

// provisionKey generates a key, stores it in repo and returns it with its secret.
func provisionKey(t *testing.T, repo *mockAPIKeyRepo, role domain.Role) (*domain.APIKey, string) {
	t.Helper()
	key, secret, err := domain.NewAPIKey("test", role)
	if err != nil {
		t.Fatalf("NewAPIKey: %v", err)
	}
	repo.keys[key.KeyID] = key
	return key, secret
}

func TestAuthService_ValidateAPIKey(t *testing.T) {
	repo := newMockAPIKeyRepo()
	svc := NewAuthService(repo, &AuthServiceConfig{CacheTTL: time.Minute, Logger: quietLogger(t)})
	ctx := context.Background()

	key, secret := provisionKey(t, repo, domain.RoleEditor)

	disabled, disabledSecret := provisionKey(t, repo, domain.RoleReader)
	disabled.Status = domain.KeyStatusDisabled

	expired, expiredSecret := provisionKey(t, repo, domain.RoleReader)
	expired.ExpiresAt = time.Now().Add(-time.Hour).UnixMilli()

	restricted, restrictedSecret := provisionKey(t, repo, domain.RoleReader)
	restricted.Allowlist = []string{"10.0.0.0/8"}

	tests := []struct {
		name     string
		keyID    string
		secret   string
		clientIP string
		wantErr  *domain.DomainError
	}{
		{"valid", key.KeyID, secret, "127.0.0.1", nil},
		{"uppercase key id", "RMAK-" + key.KeyID[len(domain.APIKeyIDPrefix):], secret, "127.0.0.1", nil},
		{"wrong secret", key.KeyID, "rmas_wrong", "127.0.0.1", domain.ErrAPIKeyInvalid},
		{"unknown key", "rmak-01hqv1234567890abcdefghjkm", secret, "127.0.0.1", domain.ErrAPIKeyInvalid},
		{"malformed key id", "not-a-key", secret, "127.0.0.1", domain.ErrAPIKeyInvalid},
		{"disabled", disabled.KeyID, disabledSecret, "127.0.0.1", domain.ErrAPIKeyDisabled},
		{"expired", expired.KeyID, expiredSecret, "127.0.0.1", domain.ErrAPIKeyInvalid},
		{"ip allowed", restricted.KeyID, restrictedSecret, "10.1.2.3", nil},
		{"ip rejected", restricted.KeyID, restrictedSecret, "192.168.0.1", domain.ErrIPNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ValidateAPIKey(ctx, &ValidateAPIKeyRequest{
				KeyID:     tt.keyID,
				KeySecret: tt.secret,
				ClientIP:  tt.clientIP,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ValidateAPIKey() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAPIKey() unexpected error = %v", err)
			}
			if !resp.Valid || resp.APIKey == nil {
				t.Fatal("response should be valid with key")
			}
			if resp.APIKey.SecretHash == "" {
				t.Error("returned key should carry its hash for internal use")
			}
		})
	}
}

func TestAuthService_ValidateAPIKeyWithCache(t *testing.T) {
	repo := newMockAPIKeyRepo()
	svc := NewAuthService(repo, &AuthServiceConfig{CacheTTL: time.Minute, Logger: quietLogger(t)})
	ctx := context.Background()

	key, secret := provisionKey(t, repo, domain.RoleReader)
	req := &ValidateAPIKeyRequest{KeyID: key.KeyID, KeySecret: secret, ClientIP: "127.0.0.1"}

	if _, err := svc.ValidateAPIKey(ctx, req); err != nil {
		t.Fatalf("first validation: %v", err)
	}
	if repo.updates != 1 {
		t.Errorf("updates = %d, want 1 (usage recorded)", repo.updates)
	}

	gets := repo.gets
	if _, err := svc.ValidateAPIKey(ctx, req); err != nil {
		t.Fatalf("cached validation: %v", err)
	}
	if repo.gets != gets {
		t.Error("second validation should be served from cache")
	}

	// A wrong secret on a cached key falls through to storage and fails.
	bad := *req
	bad.KeySecret = "rmas_wrong"
	if _, err := svc.ValidateAPIKey(ctx, &bad); !errors.Is(err, domain.ErrAPIKeyInvalid) {
		t.Fatalf("wrong secret err = %v, want %v", err, domain.ErrAPIKeyInvalid)
	}
}

func TestAuthService_CheckPermission(t *testing.T) {
	svc := NewAuthService(newMockAPIKeyRepo(), nil)

	tests := []struct {
		role    domain.Role
		perm    domain.Permission
		allowed bool
	}{
		{domain.RoleReader, domain.PermRecordsRead, true},
		{domain.RoleReader, domain.PermRecordsWrite, false},
		{domain.RoleEditor, domain.PermRecordsWrite, true},
		{domain.RoleMetrics, domain.PermRecordsRead, false},
		{domain.RoleMetrics, domain.PermMetricsRead, true},
		{domain.RoleAdmin, domain.PermMetricsRead, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			err := svc.CheckPermission(&domain.APIKey{Role: tt.role}, tt.perm)
			if tt.allowed && err != nil {
				t.Errorf("CheckPermission() unexpected error = %v", err)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrPermissionDenied) {
				t.Errorf("CheckPermission() error = %v, want %v", err, domain.ErrPermissionDenied)
			}
		})
	}
}

func TestAuthService_CheckRateLimit(t *testing.T) {
	svc := NewAuthService(newMockAPIKeyRepo(), nil)
	ctx := context.Background()

	t.Run("under rate limit", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			if err := svc.CheckRateLimit(ctx, "roomy-key", 100); err != nil {
				t.Errorf("Request %d should be allowed: %v", i, err)
			}
		}
	})

	t.Run("exceeds rate limit", func(t *testing.T) {
		var err error
		for i := 0; i < 20 && err == nil; i++ {
			err = svc.CheckRateLimit(ctx, "limited-key", 5)
		}
		if !errors.Is(err, domain.ErrAPIKeyRateLimited) {
			t.Errorf("err = %v, want %v", err, domain.ErrAPIKeyRateLimited)
		}
	})
}

func TestAuthService_CheckIPAllowlist(t *testing.T) {
	tests := []struct {
		name    string
		global  []string
		key     []string
		ip      string
		allowed bool
	}{
		{"empty allowlists allow all", nil, nil, "192.168.1.1", true},
		{"global single IP match", []string{"192.168.1.1"}, nil, "192.168.1.1", true},
		{"global single IP no match", []string{"192.168.1.1"}, nil, "192.168.1.2", false},
		{"global CIDR match", []string{"192.168.1.0/24"}, nil, "192.168.1.100", true},
		{"global CIDR no match", []string{"192.168.1.0/24"}, nil, "192.168.2.1", false},
		{"invalid client IP", []string{"192.168.1.0/24"}, nil, "invalid-ip", false},
		{"key allowlist match", nil, []string{"10.0.0.1"}, "10.0.0.1", true},
		{"both must match", []string{"10.0.0.0/8"}, []string{"10.0.0.1"}, "10.0.0.1", true},
		{"key narrows global", []string{"10.0.0.0/8"}, []string{"10.0.0.1"}, "10.0.0.2", false},
		{"invalid CIDR entry skipped", []string{"invalid-cidr/xx", "192.168.1.1"}, nil, "192.168.1.1", true},
		{"ipv6 loopback", []string{"::1"}, nil, "::1", true},
		{"ipv4-mapped client matches ipv4 entry", []string{"10.1.2.3"}, nil, "::ffff:10.1.2.3", true},
		{"zoned client matches unzoned entry", []string{"fe80::1"}, nil, "fe80::1%eth0", true},
		{"zoned entry never matches", []string{"fe80::1%eth0"}, nil, "fe80::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(newMockAPIKeyRepo(), &AuthServiceConfig{GlobalAllowlist: tt.global})
			err := svc.checkIPAllowlist(tt.ip, tt.key)
			if tt.allowed && err != nil {
				t.Errorf("checkIPAllowlist() unexpected error = %v", err)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrIPNotAllowed) {
				t.Errorf("checkIPAllowlist() error = %v, want %v", err, domain.ErrIPNotAllowed)
			}
		})
	}
}

func TestVerifyArgon2Hash(t *testing.T) {
	hash, err := domain.HashSecret("rmas_correct")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		hash   string
		ok     bool
	}{
		{"match", "rmas_correct", hash, true},
		{"wrong secret", "rmas_wrong", hash, false},
		{"invalid format", "secret", "invalid-hash", false},
		{"wrong algorithm", "secret", "$bcrypt$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA", false},
		{"wrong version", "secret", "$argon2id$v=16$m=16384,t=2,p=2$c2FsdA$aGFzaA", false},
		{"bad params", "secret", "$argon2id$v=19$memory$c2FsdA$aGFzaA", false},
		{"invalid salt base64", "secret", "$argon2id$v=19$m=16384,t=2,p=2$!!!$aGFzaA", false},
		{"invalid hash base64", "secret", "$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$!!!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifyArgon2Hash(tt.secret, tt.hash); got != tt.ok {
				t.Errorf("verifyArgon2Hash() = %v, want %v", got, tt.ok)
			}
		})
	}
}

func TestAPIKeyCache(t *testing.T) {
	t.Run("set and get returns copy", func(t *testing.T) {
		cache := NewAPIKeyCache(5, time.Minute)
		cache.Set("k", &domain.APIKey{KeyID: "k", Name: "Test"})

		got := cache.Get("k")
		if got == nil || got.Name != "Test" {
			t.Fatalf("Get() = %+v, want Name Test", got)
		}
		got.Name = "mutated"
		if cache.Get("k").Name != "Test" {
			t.Error("cache should not hand out shared pointers")
		}
	})

	t.Run("expiration", func(t *testing.T) {
		cache := NewAPIKeyCache(5, 20*time.Millisecond)
		cache.Set("k", &domain.APIKey{KeyID: "k"})
		time.Sleep(50 * time.Millisecond)
		if cache.Get("k") != nil {
			t.Error("entry should expire after TTL")
		}
		if cache.size() != 0 {
			t.Errorf("size() = %d, want 0 after expired read", cache.size())
		}
	})

	t.Run("LRU eviction", func(t *testing.T) {
		cache := NewAPIKeyCache(3, time.Minute)
		cache.Set("key1", &domain.APIKey{KeyID: "key1"})
		cache.Set("key2", &domain.APIKey{KeyID: "key2"})
		cache.Set("key3", &domain.APIKey{KeyID: "key3"})

		cache.Get("key1")
		cache.Set("key4", &domain.APIKey{KeyID: "key4"})

		if cache.Get("key2") != nil {
			t.Error("key2 should be evicted (least recently used)")
		}
		for _, k := range []string{"key1", "key3", "key4"} {
			if cache.Get(k) == nil {
				t.Errorf("%s should still exist", k)
			}
		}
	})
}

func TestRateLimiterRegistry(t *testing.T) {
	registry := NewRateLimiterRegistry()

	l1 := registry.GetOrCreate("key1", 100)
	if registry.GetOrCreate("key1", 100) != l1 {
		t.Error("Same key should return same limiter")
	}
	if registry.GetOrCreate("key2", 100) == l1 {
		t.Error("Different keys should return different limiters")
	}
	if registry.count() != 2 {
		t.Errorf("count() = %d, want 2", registry.count())
	}
}

func TestRateLimiterRegistry_PruneIdle(t *testing.T) {
	registry := NewRateLimiterRegistry()

	busy := registry.GetOrCreate("busy", 1)
	if !busy.Allow() {
		t.Fatal("first request should be allowed")
	}
	registry.GetOrCreate("idle", 1)

	if removed := registry.PruneIdle(); removed != 1 {
		t.Errorf("PruneIdle() = %d, want 1", removed)
	}
	if registry.GetOrCreate("busy", 1) != busy {
		t.Error("limiter with spent tokens was pruned")
	}
}

func TestRateLimiterRegistry_PrunesAboveMax(t *testing.T) {
	registry := NewRateLimiterRegistry()
	registry.maxLimiters = 10

	for i := 0; i < 11; i++ {
		registry.GetOrCreate(fmt.Sprintf("10.0.0.%d", i), 5)
	}
	if registry.count() != 0 {
		t.Errorf("count() = %d, want idle limiters pruned", registry.count())
	}
}

func TestDefaultAuthServiceConfig(t *testing.T) {
	cfg := DefaultAuthServiceConfig()
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if cfg.CacheSize != 10000 {
		t.Errorf("CacheSize = %d, want 10000", cfg.CacheSize)
	}
}
