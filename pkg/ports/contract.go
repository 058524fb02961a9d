package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/domain"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := &domain.RunRecord{
			ID:         runID,
			Definition: "chat-turn",
			Status:     domain.RunStatusCompleted,
			Params:     map[string]any{"user_input": "hello"},
			Output:     map[string]any{"reply": "hi"},
			Results: []domain.ExecutionResult{
				{NodeID: "assemble", Status: domain.StatusCompleted},
			},
			StartTime: time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Definition, loaded.Definition)
		assert.Equal(t, record.Status, loaded.Status)
		assert.Equal(t, "hi", loaded.Output["reply"])
		require.Len(t, loaded.Results, 1)
		assert.Equal(t, "assemble", loaded.Results[0].NodeID)
	})

	t.Run("Overwrite", func(t *testing.T) {
		record := &domain.RunRecord{ID: runID, Definition: "chat-turn", Status: domain.RunStatusRunning}
		require.NoError(t, store.Save(ctx, record))

		record.Status = domain.RunStatusCompleted
		require.NoError(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusCompleted, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: runID}))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, &domain.RunRecord{ID: id1})
		_ = store.Save(ctx, &domain.RunRecord{ID: id2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
