package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// AuditStore persists the trace of workflow runs.
// The engine treats every write except CreateExecution as best-effort.
type AuditStore interface {
	// CreateExecution stores a new record in the running state and returns its ID.
	// If rec.ID is empty the store assigns one.
	CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error)

	// UpdateExecution applies the terminal outcome of a run.
	// Returns domain.ErrExecutionNotFound if the ID is unknown.
	UpdateExecution(ctx context.Context, id string, outcome domain.ExecutionOutcome) error

	// InsertNodeExecution appends a per-node record.
	InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error

	// GetExecution loads a record.
	// Returns domain.ErrExecutionNotFound if the ID is unknown.
	GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error)

	// ListNodeExecutions returns the node records of a run in insertion order.
	ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error)
}
