package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/adapters/memory"
	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

const echoYAML = `
name: echo
nodes:
  - id: reply
    type: echo
    category: exit
`

func TestMemoryLoader_Load(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"echo": echoYAML})

	doc, err := loader.Load(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "reply", doc.Nodes[0].ID)
}

func TestMemoryLoader_NotFound(t *testing.T) {
	loader := memory.NewLoader(nil)

	_, err := loader.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrDefinitionNotFound))
}

func TestMemoryLoader_ListSorted(t *testing.T) {
	loader := memory.NewLoader(map[string]string{
		"zeta":  echoYAML,
		"alpha": echoYAML,
	})

	names, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestMemoryLoader_FromDocuments(t *testing.T) {
	doc, err := schema.ParseDocument([]byte(echoYAML))
	require.NoError(t, err)

	loader, err := memory.NewFromDocuments(doc)
	require.NoError(t, err)

	loaded, err := loader.Load(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, loaded.Name)

	// Loaded documents are parsed copies; mutating one must not leak back.
	loaded.Nodes[0].Type = "mutated"
	again, err := loader.Load(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", again.Nodes[0].Type)
}

func TestMemoryLoader_FromDocumentsRejectsUnnamed(t *testing.T) {
	_, err := memory.NewFromDocuments(&schema.Document{})
	assert.Error(t, err)
}
