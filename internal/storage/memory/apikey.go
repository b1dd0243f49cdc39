package memory

import (
	"context"
	"sync"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// APIKeyStore provides in-memory storage for API keys.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*domain.APIKey
}

// NewAPIKeyStore creates a new API key store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{
		keys: make(map[string]*domain.APIKey),
	}
}

// Load validates and stores a batch of provisioned keys.
// Nothing is stored if any key is invalid or duplicated.
func (s *APIKeyStore) Load(_ context.Context, keys []*domain.APIKey) error {
	staged := make(map[string]*domain.APIKey, len(keys))
	for _, key := range keys {
		if err := key.Validate(); err != nil {
			return err
		}
		id := domain.NormalizeAPIKeyID(key.KeyID)
		if _, dup := staged[id]; dup {
			return domain.ErrAPIKeyConflict.WithDetails(id)
		}
		clone := key.Clone()
		clone.KeyID = id
		staged[id] = clone
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range staged {
		if _, exists := s.keys[id]; exists {
			return domain.ErrAPIKeyConflict.WithDetails(id)
		}
	}
	for id, key := range staged {
		s.keys[id] = key
	}
	return nil
}

// Get retrieves an API key by ID.
func (s *APIKeyStore) Get(_ context.Context, keyID string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[keyID]
	if !ok {
		return nil, domain.ErrAPIKeyNotFound
	}

	return key.Clone(), nil
}

// Create creates a new API key.
func (s *APIKeyStore) Create(_ context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.KeyID]; exists {
		return domain.ErrAPIKeyConflict
	}

	s.keys[key.KeyID] = key.Clone()
	return nil
}

// Update updates an existing API key.
func (s *APIKeyStore) Update(_ context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.KeyID]; !exists {
		return domain.ErrAPIKeyNotFound
	}

	s.keys[key.KeyID] = key.Clone()
	return nil
}

// Count returns the number of stored keys.
func (s *APIKeyStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
