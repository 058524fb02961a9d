package runs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/runs"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.RunRecord
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, record *domain.RunRecord) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.RunRecord)
	}
	copied := *record
	s.data[record.ID] = &copied
	return nil
}

func (s *SlowStore) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.data[runID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, domain.ErrRunNotFound
}

func (s *SlowStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := runs.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_ = manager.Save(ctx, &domain.RunRecord{ID: id, Status: domain.RunStatusRunning})

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Writes to the same record must be serialized by the manager.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, &domain.RunRecord{ID: id, Status: domain.RunStatusCompleted})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
}

func TestManager_Update(t *testing.T) {
	store := &SlowStore{}
	manager := runs.NewManager(store)
	ctx := context.Background()
	id := "merge-test"

	require.NoError(t, manager.Save(ctx, &domain.RunRecord{
		ID:     id,
		Status: domain.RunStatusCompleted,
	}))

	// Simulate the background phase appending its result later.
	err := manager.Update(ctx, id, func(record *domain.RunRecord) error {
		record.Results = append(record.Results, domain.ExecutionResult{
			NodeID: "bookkeep",
			Status: domain.StatusCompleted,
		})
		return nil
	})
	require.NoError(t, err)

	record, err := manager.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, record.Results, 1)
	assert.Equal(t, "bookkeep", record.Results[0].NodeID)
}

func TestManager_UpdateMissingRun(t *testing.T) {
	manager := runs.NewManager(&SlowStore{})

	err := manager.Update(context.Background(), "missing", func(record *domain.RunRecord) error {
		t.Fatal("fn must not run for a missing record")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
