package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAuditStoreContract runs a suite of tests to verify that an AuditStore
// implementation adheres to the interface contract.
func RunAuditStoreContract(t *testing.T, store AuditStore) {
	ctx := context.Background()
	started := time.Now().UTC().Truncate(time.Millisecond)

	newRecord := func() domain.ExecutionRecord {
		return domain.ExecutionRecord{
			WorkflowID: "wf-contract",
			UserID:     "user-1",
			Input:      "hello",
			Status:     domain.RunStatusRunning,
			StartedAt:  started,
		}
	}

	t.Run("Create and Get", func(t *testing.T) {
		id, err := store.CreateExecution(ctx, newRecord())
		require.NoError(t, err, "CreateExecution should not return error")
		require.NotEmpty(t, id, "store must assign an ID")

		rec, err := store.GetExecution(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, "wf-contract", rec.WorkflowID)
		assert.Equal(t, "user-1", rec.UserID)
		assert.Equal(t, "hello", rec.Input)
		assert.Equal(t, domain.RunStatusRunning, rec.Status)
	})

	t.Run("Create keeps caller ID", func(t *testing.T) {
		rec := newRecord()
		rec.ID = "fixed-" + started.Format("150405.000")
		id, err := store.CreateExecution(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, id)
	})

	t.Run("Update", func(t *testing.T) {
		id, err := store.CreateExecution(ctx, newRecord())
		require.NoError(t, err)

		err = store.UpdateExecution(ctx, id, domain.ExecutionOutcome{
			Status:      domain.RunStatusCompleted,
			Output:      "done",
			TotalTokens: 42,
			TotalCost:   0.25,
			DurationMs:  1500,
			CompletedAt: started.Add(1500 * time.Millisecond),
		})
		require.NoError(t, err, "UpdateExecution should not return error")

		rec, err := store.GetExecution(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusCompleted, rec.Status)
		assert.Equal(t, "done", rec.Output)
		assert.Equal(t, 42, rec.TotalTokens)
		assert.InDelta(t, 0.25, rec.TotalCost, 1e-9)
		assert.Equal(t, int64(1500), rec.DurationMs)
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		err := store.UpdateExecution(ctx, "missing-execution", domain.ExecutionOutcome{Status: domain.RunStatusFailed})
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetExecution(ctx, "missing-execution")
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	})

	t.Run("Node records keep insertion order", func(t *testing.T) {
		id, err := store.CreateExecution(ctx, newRecord())
		require.NoError(t, err)

		for i, nodeID := range []string{"in", "llm", "out"} {
			err := store.InsertNodeExecution(ctx, domain.NodeExecutionRecord{
				ExecutionID: id,
				NodeID:      nodeID,
				NodeType:    domain.NodeTypeInput,
				Status:      domain.NodeStatusCompleted,
				Output:      "out-" + nodeID,
				TokensUsed:  i,
				Metadata:    map[string]any{"step": nodeID},
				CreatedAt:   started.Add(time.Duration(i) * time.Millisecond),
			})
			require.NoError(t, err)
		}

		nodes, err := store.ListNodeExecutions(ctx, id)
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, "in", nodes[0].NodeID)
		assert.Equal(t, "llm", nodes[1].NodeID)
		assert.Equal(t, "out", nodes[2].NodeID)
		assert.Equal(t, "out-llm", nodes[1].Output)
		assert.Equal(t, "llm", nodes[1].Metadata["step"])
	})

	t.Run("Node records of unknown run", func(t *testing.T) {
		nodes, err := store.ListNodeExecutions(ctx, "missing-execution")
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}
