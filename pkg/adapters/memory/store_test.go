package memory_test

import (
	"testing"

	"github.com/arborworks/arbor/pkg/adapters/memory"
	"github.com/arborworks/arbor/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRunStoreContract(t, store)
}
