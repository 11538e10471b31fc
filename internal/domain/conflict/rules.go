package conflict

import (
	"fmt"
	"strings"
)

// CheckKind selects how an automatic conflict is checked.
type CheckKind string

const (
	CheckSingle  CheckKind = "single_check"
	CheckOpposed CheckKind = "opposed_check"
)

func (k CheckKind) Valid() bool {
	return k == CheckSingle || k == CheckOpposed
}

// TieBreaker is the policy applied when an opposed check ends in an exact
// numeric tie. Besides the fixed values below, "stat_comparison:<stat>"
// compares the named stat between the two check contexts.
type TieBreaker string

const (
	TieBreakRandom           TieBreaker = "random"
	TieBreakActorPreference  TieBreaker = "actor_preference"
	TieBreakTargetPreference TieBreaker = "target_preference"
)

const statComparisonPrefix = "stat_comparison:"

// StatComparison reports whether the tie breaker is a stat comparison and,
// if so, which stat it names.
func (t TieBreaker) StatComparison() (string, bool) {
	stat, ok := strings.CutPrefix(string(t), statComparisonPrefix)
	if !ok || stat == "" {
		return "", false
	}
	return stat, true
}

// Outcome keys shared between automatic outcome templates and manual
// resolution. For single checks "target_wins" means "the action did not
// succeed" even when no literal target exists.
const (
	OutcomeActorWins  = "actor_wins"
	OutcomeTargetWins = "target_wins"
	OutcomeTie        = "tie"
	OutcomeCustom     = "custom_outcome"
	OutcomeDefault    = "default"
)

// OutcomeTemplate describes one possible resolution of a conflict type.
type OutcomeTemplate struct {
	Description string           `json:"description"`
	Effects     []map[string]any `json:"effects,omitempty"`
}

// TypeRule is the configuration entry for one conflict classification.
// Rules are loaded once at startup and never mutated afterwards.
type TypeRule struct {
	ConflictTypeID           string                     `json:"conflict_type_id"`
	Description              string                     `json:"description"`
	ManualResolutionRequired bool                       `json:"manual_resolution_required"`
	CheckKind                CheckKind                  `json:"check_kind,omitempty"`
	ActorCheckContext        map[string]any             `json:"actor_check_context,omitempty"`
	TargetCheckContext       map[string]any             `json:"target_check_context,omitempty"`
	TieBreakerRule           TieBreaker                 `json:"tie_breaker_rule,omitempty"`
	OutcomeTemplates         map[string]OutcomeTemplate `json:"outcome_templates,omitempty"`
	NotificationTemplate     string                     `json:"notification_template,omitempty"`
	ManualOutcomes           map[string]OutcomeTemplate `json:"manual_outcomes,omitempty"`
}

// Validate checks the structural invariants a rule must satisfy before it
// enters the table.
func (r TypeRule) Validate() error {
	if strings.TrimSpace(r.ConflictTypeID) == "" {
		return fmt.Errorf("rule missing conflict_type_id")
	}
	if !r.ManualResolutionRequired && r.CheckKind != "" && !r.CheckKind.Valid() {
		return fmt.Errorf("rule %s: unknown check_kind %q", r.ConflictTypeID, r.CheckKind)
	}
	return nil
}

// RuleTable is the immutable set of conflict type rules for a deployment.
type RuleTable struct {
	rules map[string]TypeRule
}

func NewRuleTable(rules []TypeRule) (RuleTable, error) {
	byID := make(map[string]TypeRule, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return RuleTable{}, err
		}
		if _, exists := byID[r.ConflictTypeID]; exists {
			return RuleTable{}, fmt.Errorf("duplicate rule for conflict type %q", r.ConflictTypeID)
		}
		byID[r.ConflictTypeID] = r
	}
	return RuleTable{rules: byID}, nil
}

func (t RuleTable) Lookup(conflictType string) (TypeRule, bool) {
	r, ok := t.rules[conflictType]
	return r, ok
}

func (t RuleTable) Len() int {
	return len(t.rules)
}
