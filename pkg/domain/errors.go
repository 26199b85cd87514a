package domain

import (
	"errors"
	"strings"
)

// ErrCycle is returned by the scheduler when the graph is not a DAG.
var ErrCycle = errors.New("workflow contains a cycle")

// ErrInvalidDefinition is matched by every pre-flight ValidationError.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// ErrUnknownNodeType is returned when an authored type is not in the closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrExecutionNotFound is returned when an execution ID is absent from the audit store.
var ErrExecutionNotFound = errors.New("execution not found")

// ErrDefinitionNotFound is returned when a loader has no workflow with the given ID.
var ErrDefinitionNotFound = errors.New("workflow definition not found")

// ErrMissingCredentials is returned by external collaborators that lack an API key.
var ErrMissingCredentials = errors.New("missing credentials")

// TimeoutMessage is the fixed run error for runs exceeding their time budget.
const TimeoutMessage = "Workflow execution timed out"

// ValidationError carries every problem found in a definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrInvalidDefinition) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
