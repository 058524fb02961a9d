package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arborworks/arbor/pkg/domain"
)

// Store implements ports.RunStore over a directory of JSON files, one per
// run. Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated record behind.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a file-backed run store, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("run store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists the record as <run-id>.json.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	if record.ID == "" {
		return fmt.Errorf("cannot save run record without an ID")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", record.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+record.ID+"-*")
	if err != nil {
		return fmt.Errorf("saving run %s: %w", record.ID, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("saving run %s: %w", record.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("saving run %s: %w", record.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(record.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("saving run %s: %w", record.ID, err)
	}
	return nil
}

// Load retrieves the record for a run ID.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path(runID))
	s.mu.Unlock()

	if os.IsNotExist(err) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}
	return &record, nil
}

// Delete removes the record for a run ID. Deleting an unknown run is a no-op.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return nil
}

// List returns the known run IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	sort.Strings(ids)
	return ids, nil
}

func (s *Store) path(runID string) string {
	// Run IDs are UUIDs; sanitize anyway so a hostile ID can't escape the dir.
	return filepath.Join(s.dir, filepath.Base(runID)+".json")
}
