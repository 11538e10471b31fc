package detect

import (
	"context"

	"arbiter/internal/app/resolve"
	"arbiter/internal/domain/conflict"
)

// SubmittedAction is one action a player queued for the current resolution
// window. Only actions that designate a contested resource (a movement's
// target space, a pickup's target item) participate in conflict detection.
type SubmittedAction struct {
	Type        string         `json:"type"`
	TargetSpace string         `json:"target_space,omitempty"`
	TargetItem  string         `json:"target_item,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type Request struct {
	GuildID string
	Actions map[string][]SubmittedAction
}

// Result is one entry per detected conflict: either a fully resolved
// conflict (automatic path, including terminal failure statuses) or a
// pending handle (manual path).
type Result struct {
	ConflictID string             `json:"conflict_id"`
	Status     conflict.Status    `json:"status"`
	Message    string             `json:"message,omitempty"`
	Conflict   *conflict.Conflict `json:"conflict,omitempty"`
}

type Response struct {
	Results []Result `json:"results"`
}

// AutoResolver and ManualPreparer are the two routing targets; satisfied by
// resolve.AutoUseCase and resolve.PrepareUseCase.
type AutoResolver interface {
	Execute(ctx context.Context, c conflict.Conflict) conflict.Conflict
}

type ManualPreparer interface {
	Execute(ctx context.Context, c conflict.Conflict) resolve.PrepareResult
}
