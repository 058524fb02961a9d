package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/adapters/memory"
	"github.com/arborworks/arbor/pkg/domain"
)

func testRecord() *domain.RunRecord {
	return &domain.RunRecord{
		ID:         "run-1",
		Definition: "qa",
		Status:     domain.RunStatusCompleted,
		Params:     map[string]any{"question": "what is the meaning of life?"},
		Output:     map[string]any{"answer": "42"},
		Results: []domain.ExecutionResult{
			{
				NodeID: "answer",
				Status: domain.StatusCompleted,
				Input:  map[string]any{"question": "what is the meaning of life?"},
				Output: map[string]any{"answer": "42"},
			},
		},
		StartTime: time.Now().Add(-time.Second),
		EndTime:   time.Now(),
	}
}

func TestEncryptionMiddleware(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	ctx := context.Background()

	t.Run("Round trip", func(t *testing.T) {
		backend := memory.NewStore()
		store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: key})(backend)

		require.NoError(t, store.Save(ctx, testRecord()))

		loaded, err := store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "42", loaded.Output["answer"])
		assert.Len(t, loaded.Results, 1)
	})

	t.Run("At rest the record is opaque", func(t *testing.T) {
		backend := memory.NewStore()
		store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: key})(backend)

		require.NoError(t, store.Save(ctx, testRecord()))

		raw, err := backend.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Empty(t, raw.Params)
		assert.Empty(t, raw.Results)
		assert.NotContains(t, raw.Output, "answer")
		assert.Contains(t, raw.Output, "__encrypted__")
		// Monitoring fields stay readable.
		assert.Equal(t, domain.RunStatusCompleted, raw.Status)
		assert.Equal(t, "qa", raw.Definition)
	})

	t.Run("Key rotation via fallback keys", func(t *testing.T) {
		oldKey := []byte("ffffffffffffffffffffffffffffffff")
		backend := memory.NewStore()

		oldStore := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: oldKey})(backend)
		require.NoError(t, oldStore.Save(ctx, testRecord()))

		rotated := NewEncryptionMiddleware(EncryptionConfig{
			ActiveKey:    key,
			FallbackKeys: [][]byte{oldKey},
		})(backend)

		loaded, err := rotated.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "42", loaded.Output["answer"])
	})

	t.Run("Wrong key fails", func(t *testing.T) {
		backend := memory.NewStore()
		store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: key})(backend)
		require.NoError(t, store.Save(ctx, testRecord()))

		wrong := NewEncryptionMiddleware(EncryptionConfig{
			ActiveKey: []byte("11111111111111111111111111111111"),
		})(backend)
		_, err := wrong.Load(ctx, "run-1")
		assert.Error(t, err)
	})

	t.Run("Unencrypted record fails secure", func(t *testing.T) {
		backend := memory.NewStore()
		require.NoError(t, backend.Save(ctx, testRecord()))

		store := NewEncryptionMiddleware(EncryptionConfig{ActiveKey: key})(backend)
		_, err := store.Load(ctx, "run-1")
		assert.Error(t, err)
	})

	t.Run("Short key panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewEncryptionMiddleware(EncryptionConfig{ActiveKey: []byte("short")})
		})
	})
}
