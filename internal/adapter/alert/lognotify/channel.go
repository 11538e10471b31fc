package lognotify

import (
	"context"

	"arbiter/internal/domain/conflict"

	"github.com/rs/zerolog"
)

// Channel is the alert sink used when no webhook is configured: it writes
// the notification to the structured log so pending conflicts still
// surface somewhere visible.
type Channel struct {
	Logger zerolog.Logger
}

func (c Channel) SendAlert(_ context.Context, conflictID, guildID, message string, _ conflict.Conflict) error {
	c.Logger.Info().
		Str("conflict_id", conflictID).
		Str("guild_id", guildID).
		Msg(message)
	return nil
}
