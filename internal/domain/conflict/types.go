package conflict

// Status tracks a conflict through its lifecycle. Transitions are
// one-directional: identified -> resolved_automatically, or
// identified -> awaiting_manual_resolution -> resolved_manually.
// The *_failed_* values are terminal.
type Status string

const (
	StatusIdentified               Status = "identified"
	StatusResolvedAutomatically    Status = "resolved_automatically"
	StatusAwaitingManualResolution Status = "awaiting_manual_resolution"
	StatusResolvedManually         Status = "resolved_manually"

	StatusResolutionFailedUnknownType     Status = "resolution_failed_unknown_type"
	StatusResolutionFailedNoEntities      Status = "resolution_failed_no_entities"
	StatusResolutionFailedNoCheckType     Status = "resolution_failed_no_check_type"
	StatusResolutionFailedRuleEngineError Status = "resolution_failed_rule_engine_error"

	StatusPreparationFailedUnknownType Status = "preparation_failed_unknown_type"
	StatusPreparationFailedNoGuildID   Status = "preparation_failed_no_guild_id"
	StatusPreparationFailedDBError     Status = "preparation_failed_db_error"

	StatusResolvedManuallyFailedNoRule Status = "resolved_manually_failed_no_rule"
)

// Entity identifies a participant in a conflict. Index 0 of
// Conflict.InvolvedEntities is the actor, index 1 the target.
type Entity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

const EntityTypeCharacter = "Character"

// CheckResult is the outcome of a single rule-engine check.
type CheckResult struct {
	TotalValue      int   `json:"total_value"`
	Success         bool  `json:"success"`
	RawRolls        []int `json:"raw_rolls,omitempty"`
	ModifierApplied int   `json:"modifier_applied"`
}

// Outcome is the final, resolved effect of a conflict. Effects are opaque
// descriptors forwarded to the caller; the engine never interprets them.
type Outcome struct {
	WinnerID            string           `json:"winner_id,omitempty"`
	OutcomeKey          string           `json:"outcome_key"`
	Description         string           `json:"description"`
	Effects             []map[string]any `json:"effects"`
	ResolutionTimestamp *float64         `json:"resolution_timestamp,omitempty"`
	ActorCheck          *CheckResult     `json:"actor_check,omitempty"`
	TargetCheck         *CheckResult     `json:"target_check,omitempty"`
	ManualOverride      bool             `json:"manual_override,omitempty"`
	ParametersApplied   map[string]any   `json:"parameters_applied,omitempty"`
}

// Conflict is a runtime record of two or more entities contesting the same
// resource within one resolution window. It is transient unless persisted
// for manual resolution, in which case the whole value round-trips through
// the pending store as JSON.
type Conflict struct {
	ID               string         `json:"id"`
	GuildID          string         `json:"guild_id"`
	Type             string         `json:"type"`
	InvolvedEntities []Entity       `json:"involved_entities"`
	Details          map[string]any `json:"details,omitempty"`
	Status           Status         `json:"status"`
	Outcome          *Outcome       `json:"outcome,omitempty"`
	ResolvedBy       string         `json:"resolved_by,omitempty"`
}

// Actor returns the first involved entity.
func (c Conflict) Actor() (Entity, bool) {
	if len(c.InvolvedEntities) == 0 {
		return Entity{}, false
	}
	return c.InvolvedEntities[0], true
}

// Target returns the second involved entity, when present.
func (c Conflict) Target() (Entity, bool) {
	if len(c.InvolvedEntities) < 2 {
		return Entity{}, false
	}
	return c.InvolvedEntities[1], true
}
