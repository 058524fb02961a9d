package ports

import (
	"context"

	"github.com/arborworks/arbor/pkg/domain"
)

// RunStore defines the interface for persisting run records. This allows
// finished (and still-settling) runs to be listed and inspected after the
// caller moved on.
type RunStore interface {
	// Save persists the record under its run ID, overwriting a previous
	// version. Callers save again when the after phase settles.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves the record for a run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes the record for a run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the known run IDs.
	List(ctx context.Context) ([]string, error)
}
