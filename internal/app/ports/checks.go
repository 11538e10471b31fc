package ports

import (
	"context"

	"arbiter/internal/domain/conflict"
)

// CheckRequest carries everything a rule engine needs to evaluate one
// entity's check. Opponent is set for opposed checks so the engine can
// apply opposed-specific modifiers.
type CheckRequest struct {
	Entity       conflict.Entity
	Kind         conflict.CheckKind
	Context      map[string]any
	Opponent     *conflict.Entity
	ConflictID   string
	ConflictType string
}

// DiceRoll is the result of rolling a notation string such as "2d6+1".
type DiceRoll struct {
	Total int
	Rolls []int
}

// CheckResolver is the pluggable rule engine behind automatic resolution.
type CheckResolver interface {
	ResolveCheck(ctx context.Context, req CheckRequest) (conflict.CheckResult, error)
	// ResolveDiceRoll evaluates a dice notation string. It backs the
	// "random" tie-break path; implementations without dice support may
	// return an error, which callers treat as the capability being absent.
	ResolveDiceRoll(ctx context.Context, notation string) (DiceRoll, error)
	// GameTime reports the campaign clock in game seconds. The second
	// return value is false when no clock is available.
	GameTime(ctx context.Context) (float64, bool)
}
