package service

import (
	"container/list"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/time/rate"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/telemetry/logger"
	"github.com/yndnr/recordsvc/pkg/cmap"
)

// APIKeyRepository defines the storage interface for API key lookups.
type APIKeyRepository interface {
	// Get retrieves an API key by ID.
	Get(ctx context.Context, keyID string) (*domain.APIKey, error)

	// Update updates an existing API key.
	Update(ctx context.Context, key *domain.APIKey) error
}

// AuthService handles API key authentication and authorization.
type AuthService struct {
	repo         APIKeyRepository
	cache        *APIKeyCache
	rateLimiters *RateLimiterRegistry
	globalAllow  []string // Global IP allowlist
	log          logger.Logger
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// CacheTTL is the cache time-to-live for validated API keys (default: 60s).
	CacheTTL time.Duration

	// CacheSize is the maximum number of cached API keys (default: 10,000).
	CacheSize int

	// GlobalAllowlist is the global IP/CIDR allowlist (empty = no restriction).
	GlobalAllowlist []string

	// Logger receives non-fatal failures. Defaults to logger.Default().
	Logger logger.Logger
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() *AuthServiceConfig {
	return &AuthServiceConfig{
		CacheTTL:        60 * time.Second,
		CacheSize:       10000,
		GlobalAllowlist: []string{},
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo APIKeyRepository, config *AuthServiceConfig) *AuthService {
	if config == nil {
		config = DefaultAuthServiceConfig()
	}
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}

	return &AuthService{
		repo:         repo,
		cache:        NewAPIKeyCache(config.CacheSize, config.CacheTTL),
		rateLimiters: NewRateLimiterRegistry(),
		globalAllow:  config.GlobalAllowlist,
		log:          log,
	}
}

// ValidateAPIKeyRequest contains parameters for API key validation.
type ValidateAPIKeyRequest struct {
	KeyID     string
	KeySecret string
	ClientIP  string
}

// ValidateAPIKeyResponse contains the result of API key validation.
type ValidateAPIKeyResponse struct {
	Valid  bool
	APIKey *domain.APIKey
}

// ValidateAPIKey validates an API key and returns the key entity if valid.
func (s *AuthService) ValidateAPIKey(ctx context.Context, req *ValidateAPIKeyRequest) (*ValidateAPIKeyResponse, error) {
	keyID := domain.NormalizeAPIKeyID(req.KeyID)
	if keyID == "" {
		return nil, domain.ErrAPIKeyInvalid.WithDetails("malformed key id")
	}

	// Cached keys skip the storage lookup but still pay for secret verification.
	if cached := s.cache.Get(keyID); cached != nil {
		if verifyArgon2Hash(req.KeySecret, cached.SecretHash) {
			if err := s.checkKeyUsable(cached, req.ClientIP); err != nil {
				return nil, err
			}
			cached.Touch()
			return &ValidateAPIKeyResponse{Valid: true, APIKey: cached}, nil
		}
		// Cache hit but secret mismatch, fall through to storage
	}

	apiKey, err := s.repo.Get(ctx, keyID)
	if err != nil {
		return nil, domain.ErrAPIKeyInvalid.WithCause(err)
	}

	if err := s.checkKeyUsable(apiKey, req.ClientIP); err != nil {
		return nil, err
	}

	if !verifyArgon2Hash(req.KeySecret, apiKey.SecretHash) {
		return nil, domain.ErrAPIKeyInvalid.WithDetails("invalid secret")
	}

	apiKey.Touch()
	if err := s.repo.Update(ctx, apiKey); err != nil {
		s.log.Warn("failed to record api key usage", "key_id", keyID, "error", err)
	}

	s.cache.Set(keyID, apiKey)

	return &ValidateAPIKeyResponse{Valid: true, APIKey: apiKey.Clone()}, nil
}

func (s *AuthService) checkKeyUsable(key *domain.APIKey, clientIP string) error {
	if key.Status != domain.KeyStatusActive {
		return domain.ErrAPIKeyDisabled
	}
	if key.IsExpired() {
		return domain.ErrAPIKeyInvalid.WithDetails("api key expired")
	}
	return s.checkIPAllowlist(clientIP, key.Allowlist)
}

// CheckPermission checks if an API key has the required permission.
func (s *AuthService) CheckPermission(apiKey *domain.APIKey, perm domain.Permission) error {
	if !domain.HasPermission(apiKey.Role, perm) {
		return domain.ErrPermissionDenied.WithDetails(
			"role " + string(apiKey.Role) + " does not have permission " + string(perm),
		)
	}
	return nil
}

// CheckRateLimit checks if an API key has exceeded its rate limit.
func (s *AuthService) CheckRateLimit(_ context.Context, keyID string, rateLimit int) error {
	limiter := s.rateLimiters.GetOrCreate(keyID, rateLimit)

	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		return domain.ErrAPIKeyRateLimited.WithDetails(
			"rate limit exceeded, retry after " + delay.String(),
		)
	}
	return nil
}

// checkIPAllowlist checks the client IP against the global and key allowlists.
// An empty combined allowlist means no restriction.
func (s *AuthService) checkIPAllowlist(clientIP string, keyAllowlist []string) error {
	if len(s.globalAllow) == 0 && len(keyAllowlist) == 0 {
		return nil
	}

	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return domain.ErrIPNotAllowed.WithDetails("invalid client IP format")
	}

	if ipAllowed(addr, s.globalAllow) && ipAllowed(addr, keyAllowlist) {
		return nil
	}
	return domain.ErrIPNotAllowed.WithDetails("client IP not in allowlist")
}

// ipAllowed reports whether addr matches any entry; an empty list allows
// all. Entries that do not parse never match.
func ipAllowed(addr netip.Addr, entries []string) bool {
	if len(entries) == 0 {
		return true
	}
	for _, entry := range entries {
		p, err := domain.ParseNetworkEntry(entry)
		if err == nil && domain.PrefixesContain([]netip.Prefix{p}, addr) {
			return true
		}
	}
	return false
}

// verifyArgon2Hash verifies a secret against an Argon2id PHC string.
// Format: $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
func verifyArgon2Hash(secret, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// ============================================================================
// APIKeyCache - LRU Cache for API Key Validation
// ============================================================================

// APIKeyCache implements an LRU cache with TTL for validated API keys.
// Entries are cloned on the way in and out.
type APIKeyCache struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration
}

type cacheEntry struct {
	keyID     string
	key       *domain.APIKey
	expiresAt time.Time
}

// NewAPIKeyCache creates a new APIKeyCache with LRU eviction.
func NewAPIKeyCache(capacity int, ttl time.Duration) *APIKeyCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &APIKeyCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get retrieves an API key from cache if not expired.
func (c *APIKeyCache) Get(keyID string) *domain.APIKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[keyID]
	if !exists {
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, keyID)
		return nil
	}

	c.order.MoveToFront(elem)
	return entry.key.Clone()
}

// Set adds an API key to the cache, evicting the least recently used
// entries when full.
func (c *APIKeyCache) Set(keyID string, key *domain.APIKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[keyID]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.key = key.Clone()
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		delete(c.items, oldest.Value.(*cacheEntry).keyID)
		c.order.Remove(oldest)
	}

	c.items[keyID] = c.order.PushFront(&cacheEntry{
		keyID:     keyID,
		key:       key.Clone(),
		expiresAt: time.Now().Add(c.ttl),
	})
}

func (c *APIKeyCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// ============================================================================
// RateLimiterRegistry - Rate Limiter Management
// ============================================================================

// DefaultMaxLimiters is the registry size above which idle limiters are
// pruned.
const DefaultMaxLimiters = 10000

// RateLimiterRegistry manages one token bucket per key.
// It backs both per-API-key and per-client-IP limiting.
type RateLimiterRegistry struct {
	limiters    *cmap.Map[*rate.Limiter]
	maxLimiters int
}

// NewRateLimiterRegistry creates a new RateLimiterRegistry.
func NewRateLimiterRegistry() *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters:    cmap.New[*rate.Limiter](),
		maxLimiters: DefaultMaxLimiters,
	}
}

// GetOrCreate retrieves an existing rate limiter or creates one allowing
// rateLimit requests per second with an equal burst.
func (r *RateLimiterRegistry) GetOrCreate(key string, rateLimit int) *rate.Limiter {
	limiter, created := r.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	})
	if created && r.limiters.Count() > r.maxLimiters {
		r.PruneIdle()
	}
	return limiter
}

// PruneIdle drops limiters whose bucket is full again. Such a key behaves
// the same when its limiter is recreated on the next request.
func (r *RateLimiterRegistry) PruneIdle() int {
	now := time.Now()
	return r.limiters.DeleteIf(func(_ string, l *rate.Limiter) bool {
		return l.TokensAt(now) >= float64(l.Burst())
	})
}

func (r *RateLimiterRegistry) count() int {
	return r.limiters.Count()
}
