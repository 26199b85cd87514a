package domain

import "time"

// ExecutionRecord is the persisted summary of a run.
type ExecutionRecord struct {
	ID           string    `json:"id" db:"id"`
	WorkflowID   string    `json:"workflowId" db:"workflow_id"`
	UserID       string    `json:"userId" db:"user_id"`
	Input        string    `json:"input" db:"input"`
	Status       RunStatus `json:"status" db:"status"`
	Output       string    `json:"output" db:"output"`
	ErrorMessage string    `json:"error,omitempty" db:"error_message"`
	TotalTokens  int       `json:"totalTokens" db:"total_tokens"`
	TotalCost    float64   `json:"totalCost" db:"total_cost"`
	DurationMs   int64     `json:"durationMs" db:"duration_ms"`
	StartedAt    time.Time `json:"startedAt" db:"-"`
	CompletedAt  time.Time `json:"completedAt,omitzero" db:"-"`
}

// ExecutionOutcome is the terminal update applied to an ExecutionRecord.
type ExecutionOutcome struct {
	Status       RunStatus
	Output       string
	ErrorMessage string
	TotalTokens  int
	TotalCost    float64
	DurationMs   int64
	CompletedAt  time.Time
}

// Apply copies the outcome onto the record.
func (o ExecutionOutcome) Apply(rec *ExecutionRecord) {
	rec.Status = o.Status
	rec.Output = o.Output
	rec.ErrorMessage = o.ErrorMessage
	rec.TotalTokens = o.TotalTokens
	rec.TotalCost = o.TotalCost
	rec.DurationMs = o.DurationMs
	rec.CompletedAt = o.CompletedAt
}

// NodeExecutionRecord is the persisted trace of one node in a run.
type NodeExecutionRecord struct {
	ExecutionID  string         `json:"executionId"`
	NodeID       string         `json:"nodeId"`
	NodeType     NodeType       `json:"nodeType"`
	Status       NodeStatus     `json:"status"`
	Input        string         `json:"input"`
	Output       string         `json:"output"`
	TokensUsed   int            `json:"tokensUsed"`
	Cost         float64        `json:"cost"`
	LatencyMs    int64          `json:"latencyMs"`
	ErrorMessage string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}
