package memory

import (
	"context"
	"sync"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// RecordStore provides in-memory record storage.
type RecordStore struct {
	mu sync.RWMutex

	// records holds the stored records in insertion order.
	records []*domain.Record

	// index maps record ID to its position in records.
	index map[int64]int

	// nextID is the id the next Create will assign.
	nextID int64
}

// NewRecordStore creates an empty record store. The first id assigned is 1.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		index:  make(map[int64]int),
		nextID: 1,
	}
}

// List returns all records in insertion order.
func (s *RecordStore) List(_ context.Context) ([]*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Get retrieves a record by ID.
func (s *RecordStore) Get(_ context.Context, id int64) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return s.records[pos].Clone(), nil
}

// Create stores a copy of record under the next id and returns the stored copy.
// Any ID on the input is ignored.
func (s *RecordStore) Create(_ context.Context, record *domain.Record) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := record.Clone()
	stored.ID = s.nextID
	s.nextID++

	s.index[stored.ID] = len(s.records)
	s.records = append(s.records, stored)

	return stored.Clone(), nil
}

// Update replaces every field of the record with the same ID.
func (s *RecordStore) Update(_ context.Context, record *domain.Record) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[record.ID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	stored := record.Clone()
	s.records[pos] = stored

	return stored.Clone(), nil
}

// Delete removes the record with the given ID.
func (s *RecordStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return domain.ErrRecordNotFound
	}

	copy(s.records[pos:], s.records[pos+1:])
	s.records[len(s.records)-1] = nil
	s.records = s.records[:len(s.records)-1]
	delete(s.index, id)

	// Shift positions of everything after the removed record.
	for i := pos; i < len(s.records); i++ {
		s.index[s.records[i].ID] = i
	}
	return nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
