package domain

// NodeStatus is the lifecycle status of a node within a run.
type NodeStatus string

const (
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// RunStatus is the terminal status of a run. RunStatusRunning only appears on
// audit records of runs still in flight.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// NodeExecutionResult is the outcome of one node.
type NodeExecutionResult struct {
	Output       string         `json:"output"`
	TokensUsed   int            `json:"tokensUsed"`
	Cost         float64        `json:"cost"`
	LatencyMs    int64          `json:"latencyMs"`
	Status       NodeStatus     `json:"status"`
	ErrorMessage string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	// Branch is HandleTrue or HandleFalse for Conditional nodes, empty otherwise.
	Branch string `json:"branch,omitempty"`
}

// WorkflowExecutionResult is the uniform outcome of a run. It is returned for
// validation failures, node failures, timeouts and successes alike.
type WorkflowExecutionResult struct {
	ExecutionID  string                         `json:"executionId"`
	Output       string                         `json:"output"`
	NodeResults  map[string]NodeExecutionResult `json:"nodeResults"`
	TotalTokens  int                            `json:"totalTokens"`
	TotalCost    float64                        `json:"totalCost"`
	Status       RunStatus                      `json:"status"`
	ErrorMessage string                         `json:"error,omitempty"`
	DurationMs   int64                          `json:"durationMs"`
}

// RunIdentity names who runs which workflow.
// UserID is the owner whose documents RAG queries search.
type RunIdentity struct {
	WorkflowID string `json:"workflowId"`
	UserID     string `json:"userId"`
}
