package ports

import (
	"context"

	"arbiter/internal/domain/conflict"
)

// AlertChannel notifies game masters about conflicts awaiting manual
// resolution. Delivery is best-effort: failures are logged by callers and
// never affect the persisted pending record.
type AlertChannel interface {
	SendAlert(ctx context.Context, conflictID, guildID, message string, payload conflict.Conflict) error
}
