package ports

import (
	"context"

	"github.com/arborworks/arbor/pkg/schema"
)

// DefinitionLoader defines how the engine retrieves workflow documents.
// This keeps the storage layer (filesystem, memory, remote) decoupled.
type DefinitionLoader interface {
	// Load retrieves a document by name.
	// Returns domain.ErrDefinitionNotFound when the name is unknown.
	Load(ctx context.Context, name string) (*schema.Document, error)

	// List returns the names of all available documents.
	// Used for introspection and the CLI/HTTP surfaces.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend
// changes. This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying documents
	// change. It abstracts away the specific event details, signaling only
	// that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
