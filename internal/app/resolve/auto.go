package resolve

import (
	"context"
	"fmt"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AutoUseCase resolves a conflict without human involvement by running the
// configured checks through the rule engine. It never returns an error:
// every failure is communicated through the returned conflict's status and
// outcome fields.
type AutoUseCase struct {
	Rules   conflict.RuleTable
	Checks  ports.CheckResolver
	Metrics ports.ConflictMetrics
	Logger  zerolog.Logger
	NewID   func() string
}

func (u AutoUseCase) Execute(ctx context.Context, c conflict.Conflict) conflict.Conflict {
	if c.ID == "" {
		c.ID = u.newID()
	}

	rule, ok := u.Rules.Lookup(c.Type)
	if !ok {
		return u.fail(c, conflict.StatusResolutionFailedUnknownType,
			fmt.Sprintf("no rule configured for conflict type %q", c.Type))
	}
	if !rule.CheckKind.Valid() {
		return u.fail(c, conflict.StatusResolutionFailedNoCheckType,
			fmt.Sprintf("rule %q does not define a usable check kind", c.Type))
	}
	actor, ok := c.Actor()
	if !ok {
		return u.fail(c, conflict.StatusResolutionFailedNoEntities,
			"conflict has no involved entities")
	}
	target, hasTarget := c.Target()

	actorReq := ports.CheckRequest{
		Entity:       actor,
		Kind:         rule.CheckKind,
		Context:      rule.ActorCheckContext,
		ConflictID:   c.ID,
		ConflictType: c.Type,
	}
	if hasTarget {
		actorReq.Opponent = &target
	}
	actorCheck, err := u.Checks.ResolveCheck(ctx, actorReq)
	if err != nil {
		return u.fail(c, conflict.StatusResolutionFailedRuleEngineError,
			fmt.Sprintf("rule engine error for actor %s: %v", actor.ID, err))
	}

	var targetCheck *conflict.CheckResult
	if rule.CheckKind == conflict.CheckOpposed && hasTarget {
		res, err := u.Checks.ResolveCheck(ctx, ports.CheckRequest{
			Entity:       target,
			Kind:         rule.CheckKind,
			Context:      rule.TargetCheckContext,
			Opponent:     &actor,
			ConflictID:   c.ID,
			ConflictType: c.Type,
		})
		if err != nil {
			return u.fail(c, conflict.StatusResolutionFailedRuleEngineError,
				fmt.Sprintf("rule engine error for target %s: %v", target.ID, err))
		}
		targetCheck = &res
	}

	var outcomeKey, winnerID string
	if targetCheck != nil {
		outcomeKey, winnerID = u.decideOpposed(ctx, rule, actor, target, actorCheck, *targetCheck)
	} else {
		outcomeKey, winnerID = decideSingle(actor, target, hasTarget, actorCheck)
	}

	template := rule.OutcomeTemplates[outcomeKey]
	description := template.Description
	if description == "" {
		description = fmt.Sprintf("Conflict %s resolved automatically: %s", c.ID, outcomeKey)
	}

	outcome := &conflict.Outcome{
		WinnerID:    winnerID,
		OutcomeKey:  outcomeKey,
		Description: description,
		Effects:     template.Effects,
		ActorCheck:  &actorCheck,
		TargetCheck: targetCheck,
	}
	if outcome.Effects == nil {
		outcome.Effects = []map[string]any{}
	}
	if ts, ok := u.Checks.GameTime(ctx); ok {
		outcome.ResolutionTimestamp = &ts
	}

	c.Status = conflict.StatusResolvedAutomatically
	c.Outcome = outcome
	if u.Metrics != nil {
		u.Metrics.RecordAutoResolved(outcomeKey)
	}
	u.Logger.Info().
		Str("conflict_id", c.ID).
		Str("conflict_type", c.Type).
		Str("guild_id", c.GuildID).
		Str("outcome_key", outcomeKey).
		Str("winner_id", winnerID).
		Msg("conflict resolved automatically")
	return c
}

// decideOpposed compares the two check totals. Strictly greater wins; an
// exact tie goes through the rule's tie breaker.
func (u AutoUseCase) decideOpposed(ctx context.Context, rule conflict.TypeRule, actor, target conflict.Entity, actorCheck, targetCheck conflict.CheckResult) (string, string) {
	switch {
	case actorCheck.TotalValue > targetCheck.TotalValue:
		return conflict.OutcomeActorWins, actor.ID
	case actorCheck.TotalValue < targetCheck.TotalValue:
		return conflict.OutcomeTargetWins, target.ID
	}

	switch tb := rule.TieBreakerRule; {
	case tb == conflict.TieBreakActorPreference:
		return conflict.OutcomeActorWins, actor.ID
	case tb == conflict.TieBreakTargetPreference:
		return conflict.OutcomeTargetWins, target.ID
	case tb == conflict.TieBreakRandom:
		roll, err := u.Checks.ResolveDiceRoll(ctx, "1d2")
		if err != nil {
			// Documented fallback when the dice capability is absent.
			u.Logger.Warn().Err(err).
				Str("conflict_type", rule.ConflictTypeID).
				Msg("random tie break unavailable, actor wins")
			return conflict.OutcomeActorWins, actor.ID
		}
		if roll.Total == 1 {
			return conflict.OutcomeActorWins, actor.ID
		}
		return conflict.OutcomeTargetWins, target.ID
	default:
		if stat, ok := tb.StatComparison(); ok {
			actorStat, _ := numericContextValue(rule.ActorCheckContext, stat)
			targetStat, _ := numericContextValue(rule.TargetCheckContext, stat)
			if targetStat > actorStat {
				return conflict.OutcomeTargetWins, target.ID
			}
			return conflict.OutcomeActorWins, actor.ID
		}
		if tb != "" {
			u.Logger.Warn().
				Str("conflict_type", rule.ConflictTypeID).
				Str("tie_breaker", string(tb)).
				Msg("unknown tie breaker, treating as tie")
		}
		return conflict.OutcomeTie, ""
	}
}

// decideSingle maps a lone check onto the opposed-outcome vocabulary:
// success means actor_wins, failure target_wins.
func decideSingle(actor, target conflict.Entity, hasTarget bool, check conflict.CheckResult) (string, string) {
	if check.Success {
		return conflict.OutcomeActorWins, actor.ID
	}
	if hasTarget {
		return conflict.OutcomeTargetWins, target.ID
	}
	return conflict.OutcomeTargetWins, ""
}

func (u AutoUseCase) fail(c conflict.Conflict, status conflict.Status, description string) conflict.Conflict {
	c.Status = status
	c.Outcome = &conflict.Outcome{Description: description, Effects: []map[string]any{}}
	if u.Metrics != nil {
		u.Metrics.RecordFailure(string(status))
	}
	u.Logger.Warn().
		Str("conflict_id", c.ID).
		Str("conflict_type", c.Type).
		Str("guild_id", c.GuildID).
		Str("status", string(status)).
		Msg(description)
	return c
}

func (u AutoUseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}

func numericContextValue(ctx map[string]any, key string) (float64, bool) {
	if ctx == nil {
		return 0, false
	}
	switch v := ctx[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
