package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the serialised chain in memory. It round-trips through
// JSON like FileStore so tests exercise the same encode/decode path.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte

	// FailPersist makes every Persist call return an error, for testing
	// the availability-over-durability policy.
	FailPersist bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Persist implements Store.
func (s *MemoryStore) Persist(_ context.Context, blocks []*Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPersist {
		return fmt.Errorf("memory store: persist disabled")
	}

	data, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}
	s.data = data
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, nil
	}

	var blocks []*Block
	if err := json.Unmarshal(s.data, &blocks); err != nil {
		return nil, fmt.Errorf("unmarshal chain: %w", err)
	}
	return blocks, nil
}
