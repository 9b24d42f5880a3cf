package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the top-level structure of a YAML rules file: a single key
// "rules" containing an array of rule definitions.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRulesFromFile reads a single YAML file and returns a validated
// RuleSet. A rule with a malformed Matches-condition regex is not
// rejected outright: it is loaded disabled, with the compile error
// recorded, per the load-time disablement rule in the engine's failure
// semantics.
func LoadRulesFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	rs := NewRuleSet()
	for i, r := range rf.Rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d in %s: %w", i, path, err)
		}
		rs.Add(r)
		if reason, bad := compileConditionRegexes(r); bad {
			rs.Disable(len(rs.Rules())-1, reason)
		}
	}
	return rs, nil
}

// LoadRulesFromDir reads all .yaml and .yml files in dir and merges them
// into a single RuleSet. Files are processed in lexicographic order for
// determinism.
func LoadRulesFromDir(dir string) (*RuleSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", dir, err)
	}

	rs := NewRuleSet()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		fileRS, err := LoadRulesFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, r := range fileRS.Rules() {
			rs.Add(r)
		}
	}
	return rs, nil
}

// validateRule checks the mandatory, structural constraints on a rule —
// the ones that must hold regardless of which facts it is later matched
// against.
func validateRule(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if len(r.Match.Patterns) == 0 {
		return fmt.Errorf("rule %s: match block must declare at least one pattern", r.Name)
	}
	for _, p := range r.Match.Patterns {
		if p.Binding == "" {
			return fmt.Errorf("rule %s: pattern missing binding", r.Name)
		}
		if p.FactType == "" {
			return fmt.Errorf("rule %s: pattern %s missing fact_type", r.Name, p.Binding)
		}
	}
	if r.Emit.MessageTemplate == "" {
		return fmt.Errorf("rule %s: emit block missing message_template", r.Name)
	}
	return nil
}

// compileConditionRegexes compiles every Matches-condition pattern in r
// and caches the result on the Condition itself (Condition.compiled), so
// the engine's matcher never recompiles the same pattern on every
// evaluation. It returns a human-readable reason and true for the first
// pattern whose regex fails to compile; the rest of the rule's conditions
// may already have a cached regex at that point, which is harmless since
// the caller disables the whole rule.
func compileConditionRegexes(r Rule) (string, bool) {
	for _, p := range r.Match.Patterns {
		for i := range p.Conditions {
			c := &p.Conditions[i]
			if c.Op != OpMatches {
				continue
			}
			re, err := regexp.CompilePOSIX(c.Value.Str)
			if err != nil {
				return fmt.Sprintf("invalid regex %q in pattern %s: %v", c.Value.Str, p.Binding, err), true
			}
			c.compiled = re
		}
	}
	return "", false
}
