package service

import (
	"context"
	"fmt"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// RecordRepository defines the storage interface for record operations.
type RecordRepository interface {
	// List returns all records in insertion order.
	List(ctx context.Context) ([]*domain.Record, error)

	// Get retrieves a record by ID.
	Get(ctx context.Context, id int64) (*domain.Record, error)

	// Create stores a record under a newly assigned ID.
	Create(ctx context.Context, record *domain.Record) (*domain.Record, error)

	// Update replaces the stored record with the same ID.
	Update(ctx context.Context, record *domain.Record) (*domain.Record, error)

	// Delete removes a record by ID.
	Delete(ctx context.Context, id int64) error
}

// OperationObserver receives the outcome of every record operation.
type OperationObserver interface {
	ObserveRecordOp(op string, err error)
}

// Record operation names reported to the OperationObserver.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RecordService handles record CRUD operations.
type RecordService struct {
	repo     RecordRepository
	observer OperationObserver
}

// RecordServiceOption configures a RecordService.
type RecordServiceOption func(*RecordService)

// WithOperationObserver reports each operation outcome to o.
func WithOperationObserver(o OperationObserver) RecordServiceOption {
	return func(s *RecordService) {
		s.observer = o
	}
}

// NewRecordService creates a new RecordService.
func NewRecordService(repo RecordRepository, opts ...RecordServiceOption) *RecordService {
	s := &RecordService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every record.
func (s *RecordService) List(ctx context.Context) ([]*domain.Record, error) {
	records, err := s.repo.List(ctx)
	s.observe(OpList, err)
	return records, err
}

// Get returns the record with the given ID or ErrRecordNotFound.
func (s *RecordService) Get(ctx context.Context, id int64) (*domain.Record, error) {
	record, err := s.repo.Get(ctx, id)
	s.observe(OpGet, err)
	return record, err
}

// Create validates the fields and stores a new record.
// Any ID set on the input is ignored; the store assigns one.
func (s *RecordService) Create(ctx context.Context, record *domain.Record) (*domain.Record, error) {
	created, err := s.create(ctx, record)
	s.observe(OpCreate, err)
	return created, err
}

func (s *RecordService) create(ctx context.Context, record *domain.Record) (*domain.Record, error) {
	if record == nil {
		return nil, domain.ErrMissingArgument.WithDetails("record is required")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, record)
}

// Update replaces every field of the record identified by pathID.
//
// The ID carried in the record must equal pathID, otherwise
// ErrRecordIDMismatch is returned and the store is not touched.
func (s *RecordService) Update(ctx context.Context, pathID int64, record *domain.Record) (*domain.Record, error) {
	updated, err := s.update(ctx, pathID, record)
	s.observe(OpUpdate, err)
	return updated, err
}

func (s *RecordService) update(ctx context.Context, pathID int64, record *domain.Record) (*domain.Record, error) {
	if record == nil {
		return nil, domain.ErrMissingArgument.WithDetails("record is required")
	}
	if record.ID != pathID {
		return nil, domain.ErrRecordIDMismatch.WithDetails(
			fmt.Sprintf("path id %d does not match body id %d", pathID, record.ID),
		)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, record)
}

// Delete removes the record with the given ID.
func (s *RecordService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	s.observe(OpDelete, err)
	return err
}

func (s *RecordService) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveRecordOp(op, err)
	}
}
