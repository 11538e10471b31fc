package dice

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"time"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"
	"arbiter/internal/domain/gametime"
)

// Check context keys the resolver understands. All are optional.
const (
	ctxKeyNotation      = "notation"       // dice notation, default "1d20"
	ctxKeyModifier      = "modifier"       // flat bonus added to the roll
	ctxKeyDifficulty    = "difficulty"     // success threshold, default 10
	ctxKeyNightModifier = "night_modifier" // extra modifier applied during night phase
)

const defaultNotation = "1d20"
const defaultDifficulty = 10

var notationPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

type Config struct {
	Seed     int64
	Clock    gametime.Clock
	HasClock bool
	Now      func() time.Time
}

// Resolver is the default rule engine: totals are a dice roll plus the
// context's flat modifiers, and single-check success means meeting the
// context's difficulty. Deterministic with respect to Config.Seed.
type Resolver struct {
	mu       sync.Mutex
	rng      *rand.Rand
	clock    gametime.Clock
	hasClock bool
	now      func() time.Time
}

func NewResolver(cfg Config) *Resolver {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		rng:      rand.New(rand.NewSource(seed)),
		clock:    cfg.Clock,
		hasClock: cfg.HasClock,
		now:      now,
	}
}

func (r *Resolver) ResolveCheck(_ context.Context, req ports.CheckRequest) (conflict.CheckResult, error) {
	notation := defaultNotation
	if n, ok := req.Context[ctxKeyNotation].(string); ok && n != "" {
		notation = n
	}
	roll, err := r.roll(notation)
	if err != nil {
		return conflict.CheckResult{}, fmt.Errorf("check for %s: %w", req.Entity.ID, err)
	}

	modifier := 0
	if m, ok := numeric(req.Context[ctxKeyModifier]); ok {
		modifier = int(m)
	}
	if r.hasClock {
		if nm, ok := numeric(req.Context[ctxKeyNightModifier]); ok {
			if phase, _ := r.clock.PhaseAt(r.now()); phase == gametime.PhaseNight {
				modifier += int(nm)
			}
		}
	}

	difficulty := defaultDifficulty
	if d, ok := numeric(req.Context[ctxKeyDifficulty]); ok {
		difficulty = int(d)
	}

	total := roll.Total + modifier
	return conflict.CheckResult{
		TotalValue:      total,
		Success:         total >= difficulty,
		RawRolls:        roll.Rolls,
		ModifierApplied: modifier,
	}, nil
}

func (r *Resolver) ResolveDiceRoll(_ context.Context, notation string) (ports.DiceRoll, error) {
	return r.roll(notation)
}

func (r *Resolver) GameTime(_ context.Context) (float64, bool) {
	if !r.hasClock {
		return 0, false
	}
	return r.clock.GameSeconds(r.now()), true
}

// roll parses and rolls NdM(+/-K) notation, e.g. "1d20", "2d6+1", "d8-2".
func (r *Resolver) roll(notation string) (ports.DiceRoll, error) {
	m := notationPattern.FindStringSubmatch(notation)
	if m == nil {
		return ports.DiceRoll{}, fmt.Errorf("invalid dice notation %q", notation)
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	bonus := 0
	if m[3] != "" {
		bonus, _ = strconv.Atoi(m[3])
	}
	if count <= 0 || sides <= 0 {
		return ports.DiceRoll{}, fmt.Errorf("invalid dice notation %q", notation)
	}
	if count > 100 {
		return ports.DiceRoll{}, fmt.Errorf("refusing to roll %d dice", count)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rolls := make([]int, count)
	total := bonus
	for i := range rolls {
		rolls[i] = r.rng.Intn(sides) + 1
		total += rolls[i]
	}
	return ports.DiceRoll{Total: total, Rolls: rolls}, nil
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
