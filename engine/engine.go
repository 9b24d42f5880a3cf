package engine

import (
	"log/slog"
	"regexp"
	"sort"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
	"github.com/hodeiscan/hodeiscan/store"
)

// placeholderPattern matches a `{path.to.field}` template placeholder.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// FindingBuilder turns a matched Tuple into a Finding: message template
// interpolation against the primary bound fact, plus severity,
// confidence, location, provenance, and fingerprint assembly.
type FindingBuilder struct{}

// NewFindingBuilder returns a FindingBuilder.
func NewFindingBuilder() *FindingBuilder { return &FindingBuilder{} }

// Build constructs the Finding a surviving tuple produces for rule.
func (b *FindingBuilder) Build(rule rules.Rule, tuple Tuple) Finding {
	primary := tuple.Primary()

	unresolved := false
	message := placeholderPattern.ReplaceAllStringFunc(rule.Emit.MessageTemplate, func(m string) string {
		path := m[1 : len(m)-1]
		v, ok := primary.Field(path)
		if !ok {
			unresolved = true
			return m
		}
		return factValueText(v)
	})

	metadata := make(map[string]string, len(rule.Emit.Metadata)+1)
	for k, v := range rule.Emit.Metadata {
		metadata[k] = v
	}
	if unresolved {
		metadata["template.unresolved"] = "true"
	}

	confidence := rule.Emit.Confidence
	if confidence == 0 {
		confidence = primary.Provenance.Confidence
	}

	return Finding{
		RuleName:    rule.Name,
		Message:     message,
		Location:    primary.Location,
		Confidence:  confidence,
		Severity:    rule.Metadata.Severity,
		Fingerprint: ComputeFingerprint(rule.Name, primary.FactType.Kind, primary.Location),
		Provenance:  primary.Provenance,
		Tags:        rule.Metadata.Tags,
		Metadata:    metadata,
	}
}

func factValueText(v ir.FactValue) string {
	switch v.Kind {
	case ir.FactValueString:
		return v.Str
	default:
		return v.String()
	}
}

// Evaluate runs every enabled rule in rs against st, joins patterns,
// applies each rule's where-clause, and returns every surviving tuple's
// Finding. The result is sorted by (file, start_line, start_column,
// rule_name, fingerprint) so that the same input always produces the
// same output, per the engine's determinism invariant - callers must not
// rely on any other ordering, including evaluation order across rules.
func Evaluate(rs *rules.RuleSet, st *store.IndexedFactStore, logger *slog.Logger) []Finding {
	if logger == nil {
		logger = slog.Default()
	}

	matcher := NewPatternMatcher(st, logger)
	evaluator := NewExprEvaluator()
	builder := NewFindingBuilder()

	var findings []Finding
	for _, rule := range rs.Rules() {
		if rule.Disabled {
			logger.Warn("skipping disabled rule", "rule", rule.Name, "reason", rule.DisabledWhy)
			continue
		}

		tuples := matcher.Match(rule.Match.Patterns)
		for _, tuple := range tuples {
			if rule.Match.WhereClause != nil && !evaluator.EvalBool(*rule.Match.WhereClause, tuple) {
				continue
			}
			findings = append(findings, builder.Build(rule, tuple))
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Location.File.String() != b.Location.File.String() {
			return a.Location.File.String() < b.Location.File.String()
		}
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		aCol, bCol := uint32(0), uint32(0)
		if a.Location.StartColumn != nil {
			aCol = uint32(*a.Location.StartColumn)
		}
		if b.Location.StartColumn != nil {
			bCol = uint32(*b.Location.StartColumn)
		}
		if aCol != bCol {
			return aCol < bCol
		}
		if a.RuleName != b.RuleName {
			return a.RuleName < b.RuleName
		}
		return a.Fingerprint < b.Fingerprint
	})

	return findings
}
