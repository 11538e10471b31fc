package staticrules

import (
	"encoding/json"
	"fmt"
	"os"

	"arbiter/internal/domain/conflict"
)

type rulesFile struct {
	ConflictRules []conflict.TypeRule `json:"conflict_rules"`
}

// Load reads the conflict rule table from a JSON file. It requires the key
// `conflict_rules` holding an array of rule objects; the table is built
// once and never mutated afterwards.
func Load(path string) (conflict.RuleTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return conflict.RuleTable{}, fmt.Errorf("read rules file %s: %w", path, err)
	}
	return Parse(b)
}

// Parse builds a rule table from raw JSON.
func Parse(b []byte) (conflict.RuleTable, error) {
	var f rulesFile
	if err := json.Unmarshal(b, &f); err != nil {
		return conflict.RuleTable{}, fmt.Errorf("decode rules file: %w", err)
	}
	if len(f.ConflictRules) == 0 {
		return conflict.RuleTable{}, fmt.Errorf("rules file defines no conflict_rules")
	}
	table, err := conflict.NewRuleTable(f.ConflictRules)
	if err != nil {
		return conflict.RuleTable{}, fmt.Errorf("build rule table: %w", err)
	}
	return table, nil
}
