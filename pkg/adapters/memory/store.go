package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.AuditStore in memory.
// Safe for concurrent use.
type Store struct {
	executions map[string]*domain.ExecutionRecord
	nodes      map[string][]domain.NodeExecutionRecord
	mu         sync.RWMutex
}

// NewStore creates a new in-memory audit store.
func NewStore() *Store {
	return &Store{
		executions: make(map[string]*domain.ExecutionRecord),
		nodes:      make(map[string][]domain.NodeExecutionRecord),
	}
}

// CreateExecution stores rec, assigning a UUID when rec.ID is empty.
func (s *Store) CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[rec.ID] = &rec
	return rec.ID, nil
}

// UpdateExecution applies the terminal outcome.
func (s *Store) UpdateExecution(ctx context.Context, id string, outcome domain.ExecutionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.executions[id]
	if !ok {
		return domain.ErrExecutionNotFound
	}
	outcome.Apply(rec)
	return nil
}

// InsertNodeExecution appends a node record.
func (s *Store) InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error {
	// Copy metadata so later mutation by the caller cannot leak in.
	rec.Metadata = maps.Clone(rec.Metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[rec.ExecutionID] = append(s.nodes[rec.ExecutionID], rec)
	return nil
}

// GetExecution returns a copy of the record.
func (s *Store) GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.executions[id]
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	ret := *rec
	return &ret, nil
}

// ListNodeExecutions returns copies of the node records in insertion order.
func (s *Store) ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.NodeExecutionRecord, len(s.nodes[executionID]))
	copy(out, s.nodes[executionID])
	return out, nil
}
