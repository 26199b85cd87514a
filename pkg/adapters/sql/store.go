// Package sql provides an AuditStore backed by a relational database through
// sqlx. PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite) are supported.
package sql

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id            TEXT PRIMARY KEY,
	workflow_id   TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	input         TEXT NOT NULL,
	status        TEXT NOT NULL,
	output        TEXT NOT NULL,
	error_message TEXT NOT NULL,
	total_tokens  BIGINT NOT NULL,
	total_cost    DOUBLE PRECISION NOT NULL,
	duration_ms   BIGINT NOT NULL,
	started_at    BIGINT NOT NULL,
	completed_at  BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS node_executions (
	seq           BIGINT NOT NULL,
	execution_id  TEXT NOT NULL,
	node_id       TEXT NOT NULL,
	node_type     TEXT NOT NULL,
	status        TEXT NOT NULL,
	input         TEXT NOT NULL,
	output        TEXT NOT NULL,
	tokens_used   BIGINT NOT NULL,
	cost          DOUBLE PRECISION NOT NULL,
	latency_ms    BIGINT NOT NULL,
	error_message TEXT NOT NULL,
	metadata      TEXT NOT NULL,
	created_at    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS node_executions_execution_id ON node_executions (execution_id, seq);
`

const (
	insertExecution = `INSERT INTO executions (id, workflow_id, user_id, input, status, output, error_message, total_tokens, total_cost, duration_ms, started_at, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	updateExecution = `UPDATE executions SET status = ?, output = ?, error_message = ?, total_tokens = ?, total_cost = ?, duration_ms = ?, completed_at = ? WHERE id = ?`
	selectExecution = `SELECT id, workflow_id, user_id, input, status, output, error_message, total_tokens, total_cost, duration_ms, started_at, completed_at FROM executions WHERE id = ?`
	insertNode      = `INSERT INTO node_executions (seq, execution_id, node_id, node_type, status, input, output, tokens_used, cost, latency_ms, error_message, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	selectNodes     = `SELECT execution_id, node_id, node_type, status, input, output, tokens_used, cost, latency_ms, error_message, metadata, created_at FROM node_executions WHERE execution_id = ? ORDER BY seq`
)

type executionRow struct {
	ID           string  `db:"id"`
	WorkflowID   string  `db:"workflow_id"`
	UserID       string  `db:"user_id"`
	Input        string  `db:"input"`
	Status       string  `db:"status"`
	Output       string  `db:"output"`
	ErrorMessage string  `db:"error_message"`
	TotalTokens  int64   `db:"total_tokens"`
	TotalCost    float64 `db:"total_cost"`
	DurationMs   int64   `db:"duration_ms"`
	StartedAt    int64   `db:"started_at"`
	CompletedAt  int64   `db:"completed_at"`
}

type nodeRow struct {
	ExecutionID  string  `db:"execution_id"`
	NodeID       string  `db:"node_id"`
	NodeType     string  `db:"node_type"`
	Status       string  `db:"status"`
	Input        string  `db:"input"`
	Output       string  `db:"output"`
	TokensUsed   int64   `db:"tokens_used"`
	Cost         float64 `db:"cost"`
	LatencyMs    int64   `db:"latency_ms"`
	ErrorMessage string  `db:"error_message"`
	Metadata     string  `db:"metadata"`
	CreatedAt    int64   `db:"created_at"`
}

// Store implements ports.AuditStore on a SQL database.
// Times are stored as unix milliseconds and node metadata as JSON text.
type Store struct {
	db  *sqlx.DB
	seq atomic.Int64
}

// Open connects to the database and verifies the connection.
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an existing connection pool.
func NewFromDB(db *sqlx.DB) *Store {
	s := &Store{db: db}
	s.seq.Store(time.Now().UnixNano())
	return s
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateExecution(ctx context.Context, rec domain.ExecutionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(insertExecution),
		rec.ID, rec.WorkflowID, rec.UserID, rec.Input, string(rec.Status), rec.Output, rec.ErrorMessage,
		rec.TotalTokens, rec.TotalCost, rec.DurationMs, millis(rec.StartedAt), millis(rec.CompletedAt))
	if err != nil {
		return "", fmt.Errorf("create execution: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) UpdateExecution(ctx context.Context, id string, o domain.ExecutionOutcome) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(updateExecution),
		string(o.Status), o.Output, o.ErrorMessage, o.TotalTokens, o.TotalCost, o.DurationMs, millis(o.CompletedAt), id)
	if err != nil {
		return fmt.Errorf("update execution %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update execution %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}

func (s *Store) InsertNodeExecution(ctx context.Context, rec domain.NodeExecutionRecord) error {
	meta := []byte("{}")
	if len(rec.Metadata) > 0 {
		var err error
		if meta, err = xjson.Marshal(rec.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(insertNode),
		s.seq.Add(1), rec.ExecutionID, rec.NodeID, string(rec.NodeType), string(rec.Status), rec.Input, rec.Output,
		rec.TokensUsed, rec.Cost, rec.LatencyMs, rec.ErrorMessage, string(meta), millis(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert node execution: %w", err)
	}
	return nil
}

func (s *Store) GetExecution(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	var row executionRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectExecution), id)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return &domain.ExecutionRecord{
		ID:           row.ID,
		WorkflowID:   row.WorkflowID,
		UserID:       row.UserID,
		Input:        row.Input,
		Status:       domain.RunStatus(row.Status),
		Output:       row.Output,
		ErrorMessage: row.ErrorMessage,
		TotalTokens:  int(row.TotalTokens),
		TotalCost:    row.TotalCost,
		DurationMs:   row.DurationMs,
		StartedAt:    fromMillis(row.StartedAt),
		CompletedAt:  fromMillis(row.CompletedAt),
	}, nil
}

func (s *Store) ListNodeExecutions(ctx context.Context, executionID string) ([]domain.NodeExecutionRecord, error) {
	var rows []nodeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectNodes), executionID); err != nil {
		return nil, fmt.Errorf("list node executions %s: %w", executionID, err)
	}

	out := make([]domain.NodeExecutionRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.NodeExecutionRecord{
			ExecutionID:  row.ExecutionID,
			NodeID:       row.NodeID,
			NodeType:     domain.NodeType(row.NodeType),
			Status:       domain.NodeStatus(row.Status),
			Input:        row.Input,
			Output:       row.Output,
			TokensUsed:   int(row.TokensUsed),
			Cost:         row.Cost,
			LatencyMs:    row.LatencyMs,
			ErrorMessage: row.ErrorMessage,
			CreatedAt:    fromMillis(row.CreatedAt),
		}
		if row.Metadata != "" && row.Metadata != "{}" {
			if err := xjson.Unmarshal([]byte(row.Metadata), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s: %w", row.NodeID, err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
