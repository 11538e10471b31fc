package memory

import (
	"context"
	"sort"

	"arbiter/internal/app/ports"
)

type PendingConflictRepo struct {
	store *Store
}

func NewPendingConflictRepo(store *Store) PendingConflictRepo {
	return PendingConflictRepo{store: store}
}

func (r PendingConflictRepo) Save(_ context.Context, record ports.PendingConflictRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.pending[record.ConflictID] = record
	return nil
}

func (r PendingConflictRepo) GetByConflictID(_ context.Context, conflictID string) (ports.PendingConflictRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	record, ok := r.store.pending[conflictID]
	if !ok {
		return ports.PendingConflictRecord{}, ports.ErrNotFound
	}
	return record, nil
}

// Delete succeeds for exactly one caller when several race on the same ID.
func (r PendingConflictRepo) Delete(_ context.Context, conflictID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.pending[conflictID]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.pending, conflictID)
	return nil
}

func (r PendingConflictRepo) ListByGuildID(_ context.Context, guildID string) ([]ports.PendingConflictRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []ports.PendingConflictRecord{}
	for _, record := range r.store.pending {
		if record.GuildID == guildID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ConflictID < out[j].ConflictID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
