package pending

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"

	"github.com/rs/zerolog"
)

var ErrInvalidRequest = errors.New("invalid pending request")

type Request struct {
	GuildID string
}

type Response struct {
	Conflicts []conflict.Conflict `json:"conflicts"`
}

// UseCase lists a guild's conflicts awaiting manual resolution. This is
// operational tooling, not on the resolution critical path.
type UseCase struct {
	Pending ports.PendingConflictRepository
	Logger  zerolog.Logger
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	req.GuildID = strings.TrimSpace(req.GuildID)
	if req.GuildID == "" {
		return Response{}, ErrInvalidRequest
	}

	records, err := u.Pending.ListByGuildID(ctx, req.GuildID)
	if err != nil {
		return Response{}, err
	}

	conflicts := make([]conflict.Conflict, 0, len(records))
	for _, record := range records {
		var c conflict.Conflict
		if err := json.Unmarshal(record.Payload, &c); err != nil {
			u.Logger.Warn().Err(err).
				Str("conflict_id", record.ConflictID).
				Str("guild_id", record.GuildID).
				Msg("skipping undecodable pending conflict")
			continue
		}
		conflicts = append(conflicts, c)
	}
	return Response{Conflicts: conflicts}, nil
}
