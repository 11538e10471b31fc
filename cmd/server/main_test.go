package main

import "testing"

func TestStrEnv_UsesEnv(t *testing.T) {
	t.Setenv("ARBITER_RULES_PATH", "/etc/arbiter/rules.json")
	if got := strEnv("ARBITER_RULES_PATH", "./conflict_rules.json"); got != "/etc/arbiter/rules.json" {
		t.Fatalf("strEnv=%q want %q", got, "/etc/arbiter/rules.json")
	}
}

func TestStrEnv_Fallback(t *testing.T) {
	t.Setenv("ARBITER_RULES_PATH", "  ")
	if got := strEnv("ARBITER_RULES_PATH", "./conflict_rules.json"); got != "./conflict_rules.json" {
		t.Fatalf("strEnv=%q want fallback", got)
	}
}

func TestIntEnv_ParsesValue(t *testing.T) {
	t.Setenv("GAME_DAY_SECONDS", "900")
	if got := intEnv("GAME_DAY_SECONDS", 600); got != 900 {
		t.Fatalf("intEnv=%d want 900", got)
	}
}

func TestIntEnv_FallbackOnGarbage(t *testing.T) {
	t.Setenv("GAME_DAY_SECONDS", "soon")
	if got := intEnv("GAME_DAY_SECONDS", 600); got != 600 {
		t.Fatalf("intEnv=%d want fallback 600", got)
	}
}
