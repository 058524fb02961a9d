package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/domain"
)

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	r := New()

	first := Group{"greet": func(ctx context.Context, args ...any) (any, error) {
		return "first", nil
	}}
	second := Group{"greet": func(ctx context.Context, args ...any) (any, error) {
		return "second", nil
	}}

	r.Register("prompt", first)
	r.Register("prompt", second) // must be a no-op

	out, err := r.Invoke(context.Background(), "prompt", "greet")
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}

func TestRegistry_Invoke(t *testing.T) {
	r := New()
	r.Register("math", Group{
		"add": func(ctx context.Context, args ...any) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
	})

	out, err := r.Invoke(context.Background(), "math", "add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, out)
}

func TestRegistry_MethodNotFound(t *testing.T) {
	r := New()
	r.Register("model", Group{
		"generate": func(ctx context.Context, args ...any) (any, error) { return nil, nil },
		"stream":   func(ctx context.Context, args ...any) (any, error) { return nil, nil },
	})

	_, err := r.Invoke(context.Background(), "model", "complete")
	var notFound *domain.MethodNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "model", notFound.Type)
	assert.Equal(t, "complete", notFound.Method)
	assert.Equal(t, []string{"generate", "stream"}, notFound.Available)

	// Unknown type behaves the same way, with an empty method list.
	_, err = r.Invoke(context.Background(), "ghost", "anything")
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, notFound.Available)
}

func TestRegistry_ErrorsSurface(t *testing.T) {
	boom := errors.New("backend unavailable")
	r := New()
	r.Register("memory", Group{
		"store": func(ctx context.Context, args ...any) (any, error) {
			return nil, boom
		},
	})

	_, err := r.Invoke(context.Background(), "memory", "store", "k", "v")
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_Listing(t *testing.T) {
	r := New()
	r.Register("b", Group{})
	r.Register("a", Group{})

	assert.Equal(t, []string{"a", "b"}, r.Types())
	assert.Nil(t, r.Methods("missing"))
}
