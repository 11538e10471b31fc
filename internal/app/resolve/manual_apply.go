package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"

	"github.com/rs/zerolog"
)

// ApplyRequest is a game master's decision for a pending conflict.
type ApplyRequest struct {
	ConflictID string
	OutcomeKey string
	Params     map[string]any
	ResolvedBy string
}

// ApplyResult mirrors the manual resolution contract: Success with the
// resolved conflict, or a message explaining why nothing was resolved.
// NotFound distinguishes the expected double-resolution/bad-ID case from
// real store failures.
type ApplyResult struct {
	Success    bool               `json:"success"`
	NotFound   bool               `json:"-"`
	Message    string             `json:"message"`
	Resolution *conflict.Conflict `json:"resolution_details,omitempty"`
}

// ApplyUseCase consumes a pending conflict exactly once. The fetch and the
// delete run inside one store transaction; the delete must succeed before
// any outcome is computed, so a racing caller can never obtain a second
// resolution for the same conflict ID.
type ApplyUseCase struct {
	TxManager ports.TxManager
	Pending   ports.PendingConflictRepository
	Rules     conflict.RuleTable
	Checks    ports.CheckResolver
	Metrics   ports.ConflictMetrics
	Logger    zerolog.Logger
}

func (u ApplyUseCase) Execute(ctx context.Context, req ApplyRequest) ApplyResult {
	if req.ConflictID == "" || req.OutcomeKey == "" {
		return ApplyResult{Success: false, Message: "conflict_id and outcome_key are required"}
	}

	var claimed conflict.Conflict
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		record, err := u.Pending.GetByConflictID(txCtx, req.ConflictID)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(record.Payload, &claimed); err != nil {
			return fmt.Errorf("decode pending conflict %s: %w", req.ConflictID, err)
		}
		// Point of no return: once the delete commits, no other caller
		// can claim this conflict.
		return u.Pending.Delete(txCtx, req.ConflictID)
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ApplyResult{
				Success:  false,
				NotFound: true,
				Message:  fmt.Sprintf("no pending conflict with ID %s (already resolved?)", req.ConflictID),
			}
		}
		if u.Metrics != nil {
			u.Metrics.RecordFailure("manual_claim_failed")
		}
		u.Logger.Error().Err(err).
			Str("conflict_id", req.ConflictID).
			Msg("failed to claim pending conflict")
		return ApplyResult{Success: false, Message: fmt.Sprintf("failed to claim pending conflict: %v", err)}
	}

	claimed.Status = conflict.StatusResolvedManually
	claimed.ResolvedBy = req.ResolvedBy
	if claimed.ResolvedBy == "" {
		claimed.ResolvedBy = "master"
	}

	rule, ok := u.Rules.Lookup(claimed.Type)
	if !ok {
		// The pending record is already consumed at this point; the loss
		// is accepted in favor of the single-consumption guarantee.
		claimed.Status = conflict.StatusResolvedManuallyFailedNoRule
		if u.Metrics != nil {
			u.Metrics.RecordFailure(string(conflict.StatusResolvedManuallyFailedNoRule))
		}
		u.Logger.Error().
			Str("conflict_id", claimed.ID).
			Str("conflict_type", claimed.Type).
			Str("guild_id", claimed.GuildID).
			Msg("pending conflict claimed but its rule no longer exists")
		return ApplyResult{
			Success:    false,
			Message:    fmt.Sprintf("rule for conflict type %q no longer exists; pending record consumed", claimed.Type),
			Resolution: &claimed,
		}
	}

	outcome := u.buildOutcome(claimed, rule, req)
	if u.Checks != nil {
		if ts, ok := u.Checks.GameTime(ctx); ok {
			outcome.ResolutionTimestamp = &ts
		}
	}
	claimed.Outcome = outcome

	if u.Metrics != nil {
		u.Metrics.RecordManualResolved(req.OutcomeKey)
	}
	u.Logger.Info().
		Str("conflict_id", claimed.ID).
		Str("conflict_type", claimed.Type).
		Str("guild_id", claimed.GuildID).
		Str("outcome_key", req.OutcomeKey).
		Str("resolved_by", claimed.ResolvedBy).
		Msg("conflict resolved manually")
	return ApplyResult{
		Success:    true,
		Message:    fmt.Sprintf("%s resolved by %s as %q.", claimed.ID, claimed.ResolvedBy, req.OutcomeKey),
		Resolution: &claimed,
	}
}

func (u ApplyUseCase) buildOutcome(c conflict.Conflict, rule conflict.TypeRule, req ApplyRequest) *conflict.Outcome {
	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	outcome := &conflict.Outcome{
		OutcomeKey:        req.OutcomeKey,
		Effects:           []map[string]any{},
		ManualOverride:    true,
		ParametersApplied: params,
	}

	if req.OutcomeKey == conflict.OutcomeCustom {
		if desc, ok := params["description"].(string); ok && desc != "" {
			outcome.Description = desc
		} else {
			outcome.Description = fmt.Sprintf("Conflict %s resolved with a custom outcome.", c.ID)
		}
		outcome.Effects = effectsFromParams(params["effects"])
		return outcome
	}

	if template, ok := rule.ManualOutcomes[req.OutcomeKey]; ok {
		outcome.Description = template.Description
		if template.Effects != nil {
			outcome.Effects = template.Effects
		}
		if outcome.Description == "" {
			outcome.Description = fmt.Sprintf("Conflict %s resolved as %q.", c.ID, req.OutcomeKey)
		}
		return outcome
	}

	if fallback, ok := rule.ManualOutcomes[conflict.OutcomeDefault]; ok {
		outcome.Description = fmt.Sprintf("%s (requested outcome %q matched no configured outcome; default applied)",
			fallback.Description, req.OutcomeKey)
		if fallback.Effects != nil {
			outcome.Effects = fallback.Effects
		}
		return outcome
	}

	// The master's decision is honored and recorded even without a
	// configured template; it just carries no mechanical effects.
	outcome.Description = fmt.Sprintf("No outcome rule defined for %q; decision recorded without mechanical effects.", req.OutcomeKey)
	u.Logger.Warn().
		Str("conflict_id", c.ID).
		Str("conflict_type", c.Type).
		Str("outcome_key", req.OutcomeKey).
		Msg("manual outcome key has no template")
	return outcome
}

func effectsFromParams(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return []map[string]any{}
	}
	effects := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			effects = append(effects, m)
		}
	}
	return effects
}
