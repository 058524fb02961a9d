package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient(t *testing.T) {
	t.Run("Bare host gets scheme", func(t *testing.T) {
		client, err := redisClient("localhost:6379")
		require.NoError(t, err)
		defer client.Close()
		assert.Equal(t, "localhost:6379", client.Options().Addr)
		assert.Equal(t, 0, client.Options().DB)
	})

	t.Run("Full URL with password and db", func(t *testing.T) {
		client, err := redisClient("redis://:secret@redis.internal:6380/2")
		require.NoError(t, err)
		defer client.Close()
		assert.Equal(t, "redis.internal:6380", client.Options().Addr)
		assert.Equal(t, "secret", client.Options().Password)
		assert.Equal(t, 2, client.Options().DB)
	})

	t.Run("Rejects non-numeric db", func(t *testing.T) {
		_, err := redisClient("redis://localhost:6379/two")
		assert.Error(t, err)
	})
}

func TestStoreOptions(t *testing.T) {
	t.Run("No persistence by default", func(t *testing.T) {
		opts, err := StoreOptions(RunOptions{})
		require.NoError(t, err)
		assert.Empty(t, opts)
	})

	t.Run("File store", func(t *testing.T) {
		dir := t.TempDir()
		opts, err := StoreOptions(RunOptions{StoreDir: filepath.Join(dir, "runs")})
		require.NoError(t, err)
		assert.Len(t, opts, 1)
		assert.DirExists(t, filepath.Join(dir, "runs"))
	})

	t.Run("Redis store includes distributed lock", func(t *testing.T) {
		opts, err := StoreOptions(RunOptions{RedisURL: "localhost:6379"})
		require.NoError(t, err)
		assert.Len(t, opts, 2)
	})
}

func TestDefaultStoreDir(t *testing.T) {
	assert.Equal(t, filepath.Join("content", ".arbor", "runs"), DefaultStoreDir("content"))
}
