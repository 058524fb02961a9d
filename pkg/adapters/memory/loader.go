package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
// Documents are stored as raw YAML and parsed on every Load, so callers
// always get an isolated copy.
type Loader struct {
	docs map[string][]byte
}

// NewLoader creates a new in-memory loader from raw YAML documents keyed
// by name.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{docs: docs}
}

// NewFromDocuments creates a new in-memory loader from parsed documents.
// This handles serialization automatically, improving DX for tests.
func NewFromDocuments(docs ...*schema.Document) (*Loader, error) {
	data := make(map[string][]byte)
	for _, d := range docs {
		if d.Name == "" {
			return nil, fmt.Errorf("document missing name")
		}
		raw, err := d.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document %s: %w", d.Name, err)
		}
		data[d.Name] = raw
	}
	return &Loader{docs: data}, nil
}

// Load retrieves a document by name.
func (l *Loader) Load(ctx context.Context, name string) (*schema.Document, error) {
	raw, ok := l.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	return schema.ParseDocument(raw)
}

// List returns all available document names.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(l.docs))
	for k := range l.docs {
		names = append(names, k)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
