package engine

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
	"github.com/hodeiscan/hodeiscan/store"
)

// factTypeByDiscriminant maps a pattern's fact_type discriminant name to
// the corresponding closed FactTypeKind. Returns ok=false for any name
// outside the closed set (the caller then treats the pattern's
// discriminant as a Custom-fact lookup).
func factTypeByDiscriminant(name string) (ir.FactTypeKind, bool) {
	for k := 0; k < ir.NumFactTypeKinds; k++ {
		kind := ir.FactTypeKind(k)
		if kind.String() == name {
			return kind, true
		}
	}
	return 0, false
}

// Binding is a single pattern's candidate fact within a matched tuple.
type Binding struct {
	Name string
	Fact ir.Fact
}

// Tuple is one surviving combination of candidate facts, one per pattern,
// that jointly satisfy every pattern's conditions.
type Tuple struct {
	Bindings []Binding
}

// ByName returns the fact bound under the given pattern binding name.
func (t Tuple) ByName(name string) (ir.Fact, bool) {
	for _, b := range t.Bindings {
		if b.Name == name {
			return b.Fact, true
		}
	}
	return ir.Fact{}, false
}

// Primary returns the fact bound to the first pattern, used as the
// location/provenance source for the Finding a tuple produces.
func (t Tuple) Primary() ir.Fact {
	return t.Bindings[0].Fact
}

// PatternMatcher resolves a rule's patterns against a fact store and
// performs the inner join across multiple patterns' bindings.
type PatternMatcher struct {
	store  *store.IndexedFactStore
	logger *slog.Logger
}

// NewPatternMatcher constructs a PatternMatcher over store. A nil logger
// defaults to slog.Default().
func NewPatternMatcher(s *store.IndexedFactStore, logger *slog.Logger) *PatternMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternMatcher{store: s, logger: logger}
}

// candidatesFor returns every fact matching a single pattern's
// discriminant and conditions, without regard to other patterns in the
// rule. An unknown discriminant (not a built-in kind and not present as a
// Custom bucket) logs a warning and yields zero candidates, per the
// engine's unknown-discriminant failure semantics — it does not abort the
// rule evaluation. For a known kind, the query planner picks the index
// used to fetch the initial candidate pool (store.Plan), preferring the
// spatial or flow index when the pattern's conditions carry a location or
// flow constraint; the per-fact condition check below still runs
// regardless, since an index narrows the pool but doesn't itself apply
// every condition (e.g. a location constraint narrows by file/line but
// not by an unrelated field equality in the same pattern).
func (m *PatternMatcher) candidatesFor(p rules.Pattern, stats store.IndexStats) []ir.Fact {
	var pool []ir.Fact
	if kind, ok := factTypeByDiscriminant(p.FactType); ok {
		plan := store.Plan(kind, "", extractLocationConstraint(p.Conditions), extractFlowConstraint(kind, p.Conditions), stats)
		pool = m.store.Execute(plan)
	} else {
		pool = m.store.ByDiscriminant(p.FactType)
		if len(pool) == 0 {
			m.logger.Warn("pattern references unknown fact_type discriminant",
				"fact_type", p.FactType, "binding", p.Binding)
		}
	}

	out := make([]ir.Fact, 0, len(pool))
	for _, f := range pool {
		if conditionsHold(f, p.Conditions) {
			out = append(out, f)
		}
	}
	return out
}

// flowFieldByKind names the condition path carrying a flow_id for each
// flow-bearing FactTypeKind.
var flowFieldByKind = map[ir.FactTypeKind]string{
	ir.FactTypeTaintSource:  "flow_id",
	ir.FactTypeTaintSink:    "consumes_flow",
	ir.FactTypeSanitization: "sanitizes_flow",
}

// extractLocationConstraint inspects a pattern's conditions for an
// equality condition against location.file; if present, it optionally
// narrows by location.start_line/location.end_line equality conditions,
// defaulting to the whole file when those are absent.
func extractLocationConstraint(conds []rules.Condition) *store.LocationConstraint {
	haveFile := false
	var file string
	lineStart, lineEnd := uint32(0), ^uint32(0)
	for _, c := range conds {
		if c.Op != rules.OpEq {
			continue
		}
		switch c.Path {
		case "location.file":
			if c.Value.Kind == rules.LiteralString {
				file = c.Value.Str
				haveFile = true
			}
		case "location.start_line":
			if c.Value.Kind == rules.LiteralNumber {
				lineStart = uint32(c.Value.Num)
			}
		case "location.end_line":
			if c.Value.Kind == rules.LiteralNumber {
				lineEnd = uint32(c.Value.Num)
			}
		}
	}
	if !haveFile {
		return nil
	}
	return &store.LocationConstraint{File: ir.NewProjectPath(file), LineStart: lineStart, LineEnd: lineEnd}
}

// extractFlowConstraint inspects a pattern's conditions for an equality
// condition against the flow-identifying field for kind, if kind carries
// one at all.
func extractFlowConstraint(kind ir.FactTypeKind, conds []rules.Condition) *ir.FlowId {
	field, ok := flowFieldByKind[kind]
	if !ok {
		return nil
	}
	for _, c := range conds {
		if c.Op != rules.OpEq || c.Path != field || c.Value.Kind != rules.LiteralString {
			continue
		}
		var fid ir.FlowId
		if err := fid.UnmarshalText([]byte(c.Value.Str)); err != nil {
			continue
		}
		return &fid
	}
	return nil
}

// conditionsHold reports whether every condition in conds holds against
// fact.
func conditionsHold(fact ir.Fact, conds []rules.Condition) bool {
	for _, c := range conds {
		if !conditionHolds(fact, c) {
			return false
		}
	}
	return true
}

func conditionHolds(fact ir.Fact, c rules.Condition) bool {
	val, ok := fact.Field(c.Path)
	if !ok {
		return false
	}
	return evalComparison(val, c)
}

// evalComparison applies a Condition's ComparisonOp between a resolved
// field value and its literal. Mismatched kinds (e.g. Contains against a
// number) evaluate to false rather than erroring, per the spec's
// type-mismatch rule.
func evalComparison(val ir.FactValue, c rules.Condition) bool {
	lit := c.Value
	switch c.Op {
	case rules.OpEq:
		return valueEqualsLiteral(val, lit)
	case rules.OpNe:
		switch {
		case val.Kind == ir.FactValueString && lit.Kind == rules.LiteralString,
			val.Kind == ir.FactValueNumber && lit.Kind == rules.LiteralNumber,
			val.Kind == ir.FactValueBoolean && lit.Kind == rules.LiteralBoolean:
			return !valueEqualsLiteral(val, lit)
		default:
			return false
		}
	case rules.OpContains:
		if val.Kind != ir.FactValueString || lit.Kind != rules.LiteralString {
			return false
		}
		return strings.Contains(val.Str, lit.Str)
	case rules.OpMatches:
		if val.Kind != ir.FactValueString || lit.Kind != rules.LiteralString {
			return false
		}
		return matchesPattern(val.Str, c)
	default:
		return false
	}
}

// matchesPattern reports whether s matches the regex named by c's literal.
// When the loader has already compiled and cached the pattern
// (c.CompiledRegex), that cached *regexp.Regexp is reused; otherwise (a
// Condition built directly rather than through the loader) it's compiled
// on demand for this single call.
func matchesPattern(s string, c rules.Condition) bool {
	re := c.CompiledRegex()
	if re == nil {
		var err error
		re, err = regexp.CompilePOSIX(c.Value.Str)
		if err != nil {
			return false
		}
	}
	return re.MatchString(s)
}

func valueEqualsLiteral(val ir.FactValue, lit rules.Literal) bool {
	switch {
	case val.Kind == ir.FactValueString && lit.Kind == rules.LiteralString:
		return val.Str == lit.Str
	case val.Kind == ir.FactValueNumber && lit.Kind == rules.LiteralNumber:
		return val.Num == lit.Num
	case val.Kind == ir.FactValueBoolean && lit.Kind == rules.LiteralBoolean:
		return val.Bool == lit.Bool
	case val.Kind == ir.FactValueNull && lit.Kind == rules.LiteralNull:
		return true
	default:
		return false
	}
}

// Match resolves every pattern in patterns independently, then computes
// the inner join across their candidate sets: the cross product of all
// patterns' candidates, filtered down to nothing further here (condition
// filtering already happened per-pattern; the where-clause, evaluated
// against the full tuple, is the caller's job since it may reference more
// than one binding).
func (m *PatternMatcher) Match(patterns []rules.Pattern) []Tuple {
	if len(patterns) == 0 {
		return nil
	}

	stats := m.store.Stats()
	perPattern := make([][]ir.Fact, len(patterns))
	for i, p := range patterns {
		perPattern[i] = m.candidatesFor(p, stats)
		if len(perPattern[i]) == 0 {
			return nil
		}
	}

	tuples := []Tuple{{}}
	for i, p := range patterns {
		var next []Tuple
		for _, t := range tuples {
			for _, f := range perPattern[i] {
				bindings := make([]Binding, len(t.Bindings), len(t.Bindings)+1)
				copy(bindings, t.Bindings)
				bindings = append(bindings, Binding{Name: p.Binding, Fact: f})
				next = append(next, Tuple{Bindings: bindings})
			}
		}
		tuples = next
	}
	return tuples
}
