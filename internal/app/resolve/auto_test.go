package resolve

import (
	"context"
	"errors"
	"testing"

	"arbiter/internal/app/ports"
	"arbiter/internal/domain/conflict"
)

type stubChecks struct {
	results  map[string]conflict.CheckResult
	checkErr error
	dice     ports.DiceRoll
	diceErr  error
	gameTime float64
	hasTime  bool
}

func (s stubChecks) ResolveCheck(_ context.Context, req ports.CheckRequest) (conflict.CheckResult, error) {
	if s.checkErr != nil {
		return conflict.CheckResult{}, s.checkErr
	}
	return s.results[req.Entity.ID], nil
}

func (s stubChecks) ResolveDiceRoll(context.Context, string) (ports.DiceRoll, error) {
	if s.diceErr != nil {
		return ports.DiceRoll{}, s.diceErr
	}
	return s.dice, nil
}

func (s stubChecks) GameTime(context.Context) (float64, bool) {
	return s.gameTime, s.hasTime
}

func opposedRules(t *testing.T, tieBreaker conflict.TieBreaker) conflict.RuleTable {
	t.Helper()
	table, err := conflict.NewRuleTable([]conflict.TypeRule{{
		ConflictTypeID: "contested_space_claim",
		CheckKind:      conflict.CheckOpposed,
		ActorCheckContext: map[string]any{
			"agility": float64(12),
		},
		TargetCheckContext: map[string]any{
			"agility": float64(14),
		},
		TieBreakerRule: tieBreaker,
		OutcomeTemplates: map[string]conflict.OutcomeTemplate{
			conflict.OutcomeActorWins: {
				Description: "First claimant takes the space.",
				Effects:     []map[string]any{{"type": "occupy_space"}},
			},
		},
	}})
	if err != nil {
		t.Fatalf("NewRuleTable: %v", err)
	}
	return table
}

func spaceConflict() conflict.Conflict {
	return conflict.Conflict{
		GuildID: "guild-1",
		Type:    "contested_space_claim",
		InvolvedEntities: []conflict.Entity{
			{ID: "p1", Type: conflict.EntityTypeCharacter},
			{ID: "p2", Type: conflict.EntityTypeCharacter},
		},
	}
}

func TestAutoExecute_OpposedHigherTotalWins(t *testing.T) {
	uc := AutoUseCase{
		Rules: opposedRules(t, conflict.TieBreakRandom),
		Checks: stubChecks{
			results: map[string]conflict.CheckResult{
				"p1": {TotalValue: 15, RawRolls: []int{15}},
				"p2": {TotalValue: 12, RawRolls: []int{12}},
			},
			gameTime: 360.5,
			hasTime:  true,
		},
		NewID: func() string { return "c-1" },
	}

	got := uc.Execute(context.Background(), spaceConflict())

	if got.Status != conflict.StatusResolvedAutomatically {
		t.Fatalf("status=%s", got.Status)
	}
	if got.ID != "c-1" {
		t.Fatalf("id=%q", got.ID)
	}
	if got.Outcome == nil {
		t.Fatalf("missing outcome")
	}
	if got.Outcome.OutcomeKey != conflict.OutcomeActorWins || got.Outcome.WinnerID != "p1" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
	if got.Outcome.Description != "First claimant takes the space." {
		t.Fatalf("description=%q", got.Outcome.Description)
	}
	if len(got.Outcome.Effects) != 1 {
		t.Fatalf("effects=%v", got.Outcome.Effects)
	}
	if got.Outcome.ActorCheck == nil || got.Outcome.ActorCheck.TotalValue != 15 {
		t.Fatalf("actor check=%+v", got.Outcome.ActorCheck)
	}
	if got.Outcome.TargetCheck == nil || got.Outcome.TargetCheck.TotalValue != 12 {
		t.Fatalf("target check=%+v", got.Outcome.TargetCheck)
	}
	if got.Outcome.ResolutionTimestamp == nil || *got.Outcome.ResolutionTimestamp != 360.5 {
		t.Fatalf("timestamp=%v", got.Outcome.ResolutionTimestamp)
	}
}

func TestAutoExecute_OpposedLowerTotalLoses(t *testing.T) {
	uc := AutoUseCase{
		Rules: opposedRules(t, conflict.TieBreakRandom),
		Checks: stubChecks{
			results: map[string]conflict.CheckResult{
				"p1": {TotalValue: 8},
				"p2": {TotalValue: 17},
			},
		},
	}

	got := uc.Execute(context.Background(), spaceConflict())
	if got.Outcome.OutcomeKey != conflict.OutcomeTargetWins || got.Outcome.WinnerID != "p2" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
	// No template for target_wins in this table, so a generated line is used.
	if got.Outcome.Description == "" {
		t.Fatalf("expected generated description")
	}
	if got.Outcome.Effects == nil || len(got.Outcome.Effects) != 0 {
		t.Fatalf("effects=%v want empty non-nil", got.Outcome.Effects)
	}
}

func TestAutoExecute_TieRandomRollMapsToWinner(t *testing.T) {
	tied := map[string]conflict.CheckResult{
		"p1": {TotalValue: 10},
		"p2": {TotalValue: 10},
	}

	cases := []struct {
		name       string
		roll       int
		wantKey    string
		wantWinner string
	}{
		{"roll 1 means actor", 1, conflict.OutcomeActorWins, "p1"},
		{"roll 2 means target", 2, conflict.OutcomeTargetWins, "p2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := AutoUseCase{
				Rules:  opposedRules(t, conflict.TieBreakRandom),
				Checks: stubChecks{results: tied, dice: ports.DiceRoll{Total: tc.roll, Rolls: []int{tc.roll}}},
			}
			got := uc.Execute(context.Background(), spaceConflict())
			if got.Outcome.OutcomeKey != tc.wantKey || got.Outcome.WinnerID != tc.wantWinner {
				t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
			}
		})
	}
}

func TestAutoExecute_TieRandomDiceUnavailableFallsBackToActor(t *testing.T) {
	uc := AutoUseCase{
		Rules: opposedRules(t, conflict.TieBreakRandom),
		Checks: stubChecks{
			results: map[string]conflict.CheckResult{
				"p1": {TotalValue: 10},
				"p2": {TotalValue: 10},
			},
			diceErr: errors.New("no dice"),
		},
	}

	got := uc.Execute(context.Background(), spaceConflict())
	if got.Outcome.OutcomeKey != conflict.OutcomeActorWins || got.Outcome.WinnerID != "p1" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
}

func TestAutoExecute_TiePreferenceBreakers(t *testing.T) {
	tied := stubChecks{results: map[string]conflict.CheckResult{
		"p1": {TotalValue: 10},
		"p2": {TotalValue: 10},
	}}

	uc := AutoUseCase{Rules: opposedRules(t, conflict.TieBreakActorPreference), Checks: tied}
	if got := uc.Execute(context.Background(), spaceConflict()); got.Outcome.WinnerID != "p1" {
		t.Fatalf("actor_preference winner=%q", got.Outcome.WinnerID)
	}

	uc = AutoUseCase{Rules: opposedRules(t, conflict.TieBreakTargetPreference), Checks: tied}
	if got := uc.Execute(context.Background(), spaceConflict()); got.Outcome.WinnerID != "p2" {
		t.Fatalf("target_preference winner=%q", got.Outcome.WinnerID)
	}
}

func TestAutoExecute_TieStatComparison(t *testing.T) {
	tied := stubChecks{results: map[string]conflict.CheckResult{
		"p1": {TotalValue: 10},
		"p2": {TotalValue: 10},
	}}

	// Target's agility (14) beats actor's (12) in the fixture table.
	uc := AutoUseCase{Rules: opposedRules(t, "stat_comparison:agility"), Checks: tied}
	got := uc.Execute(context.Background(), spaceConflict())
	if got.Outcome.OutcomeKey != conflict.OutcomeTargetWins || got.Outcome.WinnerID != "p2" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}

	// An unknown stat reads as 0 on both sides and the actor keeps the edge.
	uc = AutoUseCase{Rules: opposedRules(t, "stat_comparison:luck"), Checks: tied}
	got = uc.Execute(context.Background(), spaceConflict())
	if got.Outcome.WinnerID != "p1" {
		t.Fatalf("winner=%q", got.Outcome.WinnerID)
	}
}

func TestAutoExecute_TieWithoutBreakerIsTieOutcome(t *testing.T) {
	uc := AutoUseCase{
		Rules: opposedRules(t, ""),
		Checks: stubChecks{results: map[string]conflict.CheckResult{
			"p1": {TotalValue: 10},
			"p2": {TotalValue: 10},
		}},
	}

	got := uc.Execute(context.Background(), spaceConflict())
	if got.Outcome.OutcomeKey != conflict.OutcomeTie || got.Outcome.WinnerID != "" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
}

func TestAutoExecute_SingleCheck(t *testing.T) {
	table, err := conflict.NewRuleTable([]conflict.TypeRule{{
		ConflictTypeID: "locked_door_force",
		CheckKind:      conflict.CheckSingle,
	}})
	if err != nil {
		t.Fatalf("NewRuleTable: %v", err)
	}

	c := conflict.Conflict{
		Type:             "locked_door_force",
		InvolvedEntities: []conflict.Entity{{ID: "p1", Type: conflict.EntityTypeCharacter}},
	}

	uc := AutoUseCase{Rules: table, Checks: stubChecks{results: map[string]conflict.CheckResult{
		"p1": {TotalValue: 18, Success: true},
	}}}
	got := uc.Execute(context.Background(), c)
	if got.Outcome.OutcomeKey != conflict.OutcomeActorWins || got.Outcome.WinnerID != "p1" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
	if got.Outcome.TargetCheck != nil {
		t.Fatalf("single check must not produce a target check")
	}

	uc = AutoUseCase{Rules: table, Checks: stubChecks{results: map[string]conflict.CheckResult{
		"p1": {TotalValue: 3, Success: false},
	}}}
	got = uc.Execute(context.Background(), c)
	if got.Outcome.OutcomeKey != conflict.OutcomeTargetWins || got.Outcome.WinnerID != "" {
		t.Fatalf("outcome=%q winner=%q", got.Outcome.OutcomeKey, got.Outcome.WinnerID)
	}
}

func TestAutoExecute_FailureStatuses(t *testing.T) {
	table := opposedRules(t, conflict.TieBreakRandom)

	t.Run("unknown type", func(t *testing.T) {
		uc := AutoUseCase{Rules: table, Checks: stubChecks{}}
		got := uc.Execute(context.Background(), conflict.Conflict{Type: "unmapped_type"})
		if got.Status != conflict.StatusResolutionFailedUnknownType {
			t.Fatalf("status=%s", got.Status)
		}
		if got.Outcome == nil || got.Outcome.Description == "" {
			t.Fatalf("failure must carry a description")
		}
	})

	t.Run("no check kind", func(t *testing.T) {
		manualOnly, err := conflict.NewRuleTable([]conflict.TypeRule{{
			ConflictTypeID:           "contested_item_claim",
			ManualResolutionRequired: true,
		}})
		if err != nil {
			t.Fatalf("NewRuleTable: %v", err)
		}
		uc := AutoUseCase{Rules: manualOnly, Checks: stubChecks{}}
		got := uc.Execute(context.Background(), conflict.Conflict{Type: "contested_item_claim"})
		if got.Status != conflict.StatusResolutionFailedNoCheckType {
			t.Fatalf("status=%s", got.Status)
		}
	})

	t.Run("no entities", func(t *testing.T) {
		uc := AutoUseCase{Rules: table, Checks: stubChecks{}}
		got := uc.Execute(context.Background(), conflict.Conflict{Type: "contested_space_claim"})
		if got.Status != conflict.StatusResolutionFailedNoEntities {
			t.Fatalf("status=%s", got.Status)
		}
	})

	t.Run("rule engine error", func(t *testing.T) {
		uc := AutoUseCase{Rules: table, Checks: stubChecks{checkErr: errors.New("boom")}}
		got := uc.Execute(context.Background(), spaceConflict())
		if got.Status != conflict.StatusResolutionFailedRuleEngineError {
			t.Fatalf("status=%s", got.Status)
		}
	})
}

func TestAutoExecute_DeterministicForSameInputs(t *testing.T) {
	uc := AutoUseCase{
		Rules: opposedRules(t, conflict.TieBreakRandom),
		Checks: stubChecks{results: map[string]conflict.CheckResult{
			"p1": {TotalValue: 15},
			"p2": {TotalValue: 12},
		}},
		NewID: func() string { return "c-1" },
	}

	first := uc.Execute(context.Background(), spaceConflict())
	second := uc.Execute(context.Background(), spaceConflict())
	if first.Outcome.OutcomeKey != second.Outcome.OutcomeKey ||
		first.Outcome.WinnerID != second.Outcome.WinnerID ||
		first.Status != second.Status {
		t.Fatalf("results diverged: %+v vs %+v", first.Outcome, second.Outcome)
	}
}
