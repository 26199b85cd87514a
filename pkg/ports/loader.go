package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// DefinitionLoader retrieves stored workflow definitions.
// This allows the storage layer (Loam, files, memory) to be decoupled.
type DefinitionLoader interface {
	// Get returns the definition with the given ID.
	// Returns domain.ErrDefinitionNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.WorkflowDefinition, error)

	// List returns the IDs of every available definition, sorted.
	List(ctx context.Context) ([]string, error)
}
