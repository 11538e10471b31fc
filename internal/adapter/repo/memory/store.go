package memory

import (
	"sync"

	"arbiter/internal/app/ports"
)

// Store backs the in-memory repository twins used in tests and local runs.
// mu guards the data maps; txMu serializes transactions so the fetch+delete
// claim sequence keeps the same exactly-once property the SQL store has.
type Store struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	pending map[string]ports.PendingConflictRecord
}

func NewStore() *Store {
	return &Store{
		pending: make(map[string]ports.PendingConflictRecord),
	}
}

func (s *Store) SeedPending(record ports.PendingConflictRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[record.ConflictID] = record
}
