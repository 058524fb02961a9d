package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	t.Run("Strings stay strings", func(t *testing.T) {
		params, err := ParseParams([]string{"question=what is arbor?", "model=gpt-4o"})
		require.NoError(t, err)
		assert.Equal(t, "what is arbor?", params["question"])
		assert.Equal(t, "gpt-4o", params["model"])
	})

	t.Run("JSON literals keep their type", func(t *testing.T) {
		params, err := ParseParams([]string{
			"limit=5",
			"temperature=0.2",
			"verbose=true",
			"tags=[\"a\",\"b\"]",
			"meta={\"k\":1}",
		})
		require.NoError(t, err)
		assert.Equal(t, float64(5), params["limit"])
		assert.Equal(t, 0.2, params["temperature"])
		assert.Equal(t, true, params["verbose"])
		assert.Equal(t, []any{"a", "b"}, params["tags"])
		assert.Equal(t, map[string]any{"k": float64(1)}, params["meta"])
	})

	t.Run("Values containing equals sign", func(t *testing.T) {
		params, err := ParseParams([]string{"expr=a=b"})
		require.NoError(t, err)
		assert.Equal(t, "a=b", params["expr"])
	})

	t.Run("Almost-JSON falls back to string", func(t *testing.T) {
		params, err := ParseParams([]string{"version=1.2.3", "note=true story"})
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", params["version"])
		assert.Equal(t, "true story", params["note"])
	})

	t.Run("Rejects malformed pairs", func(t *testing.T) {
		_, err := ParseParams([]string{"novalue"})
		assert.Error(t, err)

		_, err = ParseParams([]string{"=orphan"})
		assert.Error(t, err)
	})

	t.Run("Empty value allowed", func(t *testing.T) {
		params, err := ParseParams([]string{"optional="})
		require.NoError(t, err)
		assert.Equal(t, "", params["optional"])
	})
}

func TestBuildParams(t *testing.T) {
	t.Run("JSON object wins over pairs", func(t *testing.T) {
		params, err := buildParams(RunOptions{
			Params:     []string{"question=from flag", "limit=3"},
			ParamsJSON: `{"question": "from json"}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "from json", params["question"])
		assert.Equal(t, float64(3), params["limit"])
	})

	t.Run("Invalid JSON is rejected", func(t *testing.T) {
		_, err := buildParams(RunOptions{ParamsJSON: "{not json"})
		assert.Error(t, err)
	})

	t.Run("Control characters are stripped", func(t *testing.T) {
		params, err := buildParams(RunOptions{Params: []string{"q=hi\x00there"}})
		require.NoError(t, err)
		assert.Equal(t, "hithere", params["q"])
	})
}
