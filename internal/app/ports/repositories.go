package ports

import (
	"context"
	"time"
)

// PendingConflictRecord is a serialized conflict awaiting a game master's
// decision. Payload holds the full conflict JSON.
type PendingConflictRecord struct {
	ConflictID string
	GuildID    string
	Payload    []byte
	CreatedAt  time.Time
}

// PendingConflictRepository is the durable store for conflicts awaiting
// manual resolution. Delete must be race-safe: when two callers race on the
// same conflict ID, exactly one sees success and the other ErrNotFound.
type PendingConflictRepository interface {
	Save(ctx context.Context, record PendingConflictRecord) error
	GetByConflictID(ctx context.Context, conflictID string) (PendingConflictRecord, error)
	Delete(ctx context.Context, conflictID string) error
	ListByGuildID(ctx context.Context, guildID string) ([]PendingConflictRecord, error)
}
