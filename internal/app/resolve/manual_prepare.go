package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PrepareResult is the pending handle returned when a conflict is parked
// for a game master's decision.
type PrepareResult struct {
	ConflictID string          `json:"conflict_id"`
	Status     conflict.Status `json:"status"`
	Message    string          `json:"message"`
}

// PrepareUseCase persists a conflict that requires human judgment and
// notifies the game-master channel. The save happens before the notify:
// a lost notification never implies an unsaved conflict.
type PrepareUseCase struct {
	Rules   conflict.RuleTable
	Pending ports.PendingConflictRepository
	Alerts  ports.AlertChannel
	Metrics ports.ConflictMetrics
	Logger  zerolog.Logger
	NewID   func() string
	Now     func() time.Time
}

func (u PrepareUseCase) Execute(ctx context.Context, c conflict.Conflict) PrepareResult {
	rule, ok := u.Rules.Lookup(c.Type)
	if !ok {
		return u.fail(c, conflict.StatusPreparationFailedUnknownType,
			fmt.Sprintf("no rule configured for conflict type %q", c.Type))
	}

	if c.ID == "" {
		c.ID = u.newID()
	}
	c.Status = conflict.StatusAwaitingManualResolution

	if c.GuildID == "" {
		// A conflict without a guild scope would be unreachable by
		// guild-scoped queries; refuse to persist it.
		return u.fail(c, conflict.StatusPreparationFailedNoGuildID,
			"conflict has no guild_id, refusing to persist")
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return u.fail(c, conflict.StatusPreparationFailedDBError,
			fmt.Sprintf("serialize conflict: %v", err))
	}
	record := ports.PendingConflictRecord{
		ConflictID: c.ID,
		GuildID:    c.GuildID,
		Payload:    payload,
		CreatedAt:  u.now(),
	}
	if err := u.Pending.Save(ctx, record); err != nil {
		return u.fail(c, conflict.StatusPreparationFailedDBError,
			fmt.Sprintf("persist pending conflict: %v", err))
	}

	message := u.renderNotification(c, rule)

	if u.Alerts != nil {
		if err := u.Alerts.SendAlert(ctx, c.ID, c.GuildID, message, c); err != nil {
			// Best effort: the conflict is safely persisted either way.
			u.Logger.Warn().Err(err).
				Str("conflict_id", c.ID).
				Str("guild_id", c.GuildID).
				Msg("failed to deliver manual resolution alert")
		}
	}

	if u.Metrics != nil {
		u.Metrics.RecordPending()
	}
	u.Logger.Info().
		Str("conflict_id", c.ID).
		Str("conflict_type", c.Type).
		Str("guild_id", c.GuildID).
		Msg("conflict awaiting manual resolution")
	return PrepareResult{
		ConflictID: c.ID,
		Status:     conflict.StatusAwaitingManualResolution,
		Message:    message,
	}
}

func (u PrepareUseCase) renderNotification(c conflict.Conflict, rule conflict.TypeRule) string {
	if rule.NotificationTemplate == "" {
		return conflict.FallbackNotification(c)
	}
	rendered, missing := conflict.RenderNotification(rule.NotificationTemplate, c, rule)
	if len(missing) > 0 {
		u.Logger.Warn().
			Str("conflict_id", c.ID).
			Str("conflict_type", c.Type).
			Strs("missing_placeholders", missing).
			Msg("notification template references unknown placeholders")
		return conflict.FallbackNotification(c)
	}
	return rendered
}

func (u PrepareUseCase) fail(c conflict.Conflict, status conflict.Status, message string) PrepareResult {
	if u.Metrics != nil {
		u.Metrics.RecordFailure(string(status))
	}
	u.Logger.Warn().
		Str("conflict_id", c.ID).
		Str("conflict_type", c.Type).
		Str("guild_id", c.GuildID).
		Str("status", string(status)).
		Msg(message)
	return PrepareResult{ConflictID: c.ID, Status: status, Message: message}
}

func (u PrepareUseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func (u PrepareUseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}
