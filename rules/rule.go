// Package rules implements the declarative rule grammar: patterns that
// select facts, a where-clause expression language, and an emit block
// describing the Finding to produce. Rules are loaded from YAML files and
// matched against facts served by an IndexedFactStore; the matching and
// evaluation logic itself lives in package engine.
package rules

import (
	"regexp"

	"github.com/hodeiscan/hodeiscan/ir"
)

// ComparisonOp is the set of operators a Condition may apply between a
// resolved field and a literal value.
type ComparisonOp string

const (
	OpEq       ComparisonOp = "eq"
	OpNe       ComparisonOp = "ne"
	OpContains ComparisonOp = "contains"
	OpMatches  ComparisonOp = "matches"
)

// Condition is a single field predicate applied to a candidate fact within
// a Pattern.
type Condition struct {
	Path  string       `yaml:"path"`
	Op    ComparisonOp `yaml:"op"`
	Value Literal      `yaml:"value"`

	// compiled caches the regexp compiled from Value.Str for an OpMatches
	// condition, set by the loader (compileConditionRegexes) so the engine
	// doesn't recompile it on every evaluation. Conditions built directly
	// rather than through the loader leave this nil; CompiledRegex's
	// caller falls back to compiling on demand for those.
	compiled *regexp.Regexp
}

// CompiledRegex returns the regex cached for an OpMatches condition by the
// loader, or nil if this condition wasn't produced by the loader.
func (c Condition) CompiledRegex() *regexp.Regexp {
	return c.compiled
}

// Pattern selects candidate facts by discriminant name, then filters them
// by a list of Conditions.
type Pattern struct {
	Binding    string      `yaml:"binding"`
	FactType   string      `yaml:"fact_type"`
	Conditions []Condition `yaml:"conditions"`
}

// MatchBlock is a rule's selection criteria: the patterns to join, plus an
// optional where-clause further constraining the joined tuple.
type MatchBlock struct {
	Patterns    []Pattern `yaml:"patterns"`
	WhereClause *Expr     `yaml:"where,omitempty"`
}

// EmitBlock describes the Finding a matching tuple produces.
type EmitBlock struct {
	MessageTemplate string            `yaml:"message_template"`
	Confidence      ir.Confidence     `yaml:"confidence"`
	Metadata        map[string]string `yaml:"metadata"`
}

// RuleMetadata carries a rule's descriptive, non-semantic fields.
type RuleMetadata struct {
	Description string   `yaml:"description"`
	Severity    ir.Severity `yaml:"severity"`
	Tags        []string `yaml:"tags"`
	Category    string   `yaml:"category"`
}

// Rule is a single declarative rule: what to match, and what Finding to
// emit for each match.
type Rule struct {
	Name     string     `yaml:"name"`
	Metadata RuleMetadata `yaml:"metadata"`
	Match    MatchBlock `yaml:"match"`
	Emit     EmitBlock  `yaml:"emit"`

	// Disabled is set at load time if any Matches-condition pattern in
	// this rule fails to compile; DisabledWhy records why. The engine
	// skips a disabled rule entirely rather than erroring on every
	// evaluation.
	Disabled    bool
	DisabledWhy string
}

// RuleSet is an ordered collection of rules with fast lookup by name and
// tag, mirroring the teacher's findings-oriented RuleSet but keyed by rule
// name (the unique identifier in this grammar) instead of a separate ID
// field.
type RuleSet struct {
	rules  []Rule
	byName map[string]int
	byTag  map[string][]int
}

// NewRuleSet returns an initialized, empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		byName: make(map[string]int),
		byTag:  make(map[string][]int),
	}
}

// Add appends a rule and updates the lookup indexes.
func (rs *RuleSet) Add(r Rule) {
	idx := len(rs.rules)
	rs.rules = append(rs.rules, r)
	rs.byName[r.Name] = idx
	for _, tag := range r.Metadata.Tags {
		rs.byTag[tag] = append(rs.byTag[tag], idx)
	}
}

// Rules returns all rules in insertion order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// ByName looks up a rule by its unique name.
func (rs *RuleSet) ByName(name string) (Rule, bool) {
	idx, ok := rs.byName[name]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[idx], true
}

// ByTag returns all rules carrying the given tag.
func (rs *RuleSet) ByTag(tag string) []Rule {
	idxs, ok := rs.byTag[tag]
	if !ok {
		return nil
	}
	out := make([]Rule, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, rs.rules[idx])
	}
	return out
}

// Disable marks the rule at idx as disabled, in place, recording why. Used
// by the loader when a rule's Matches-condition regex fails to compile.
func (rs *RuleSet) Disable(idx int, reason string) {
	rs.rules[idx].Disabled = true
	rs.rules[idx].DisabledWhy = reason
}
