package engine

import (
	"testing"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
	"github.com/hodeiscan/hodeiscan/store"
)

func mustFactAt(t *testing.T, ft ir.FactType, file string, line uint32) ir.Fact {
	t.Helper()
	ln, err := ir.NewLineNumber(line)
	if err != nil {
		t.Fatalf("NewLineNumber: %v", err)
	}
	loc, err := ir.NewSourceLocation(ir.NewProjectPath(file), ln, ln, nil, nil)
	if err != nil {
		t.Fatalf("NewSourceLocation: %v", err)
	}
	conf, _ := ir.NewConfidence(0.9)
	prov, err := ir.NewProvenance("TestExtractor", "1.0.0", conf)
	if err != nil {
		t.Fatalf("NewProvenance: %v", err)
	}
	return ir.NewFact(ft, loc, prov)
}

func strLit(s string) rules.Literal {
	return rules.Literal{Kind: rules.LiteralString, Str: s}
}

// TestCandidatesFor_LocationConditionUsesSpatialQuery verifies that a
// pattern with a location.file equality condition resolves through the
// spatial index rather than a full type-index scan over every Function
// fact: a Function fact in a different file must not survive even though
// it carries the same FactTypeKind.
func TestCandidatesFor_LocationConditionUsesSpatialQuery(t *testing.T) {
	t.Parallel()

	inFile := mustFactAt(t, ir.NewFunction(ir.FunctionData{Name: "f"}), "a.py", 3)
	otherFile := mustFactAt(t, ir.NewFunction(ir.FunctionData{Name: "g"}), "b.py", 3)
	s := store.New([]ir.Fact{inFile, otherFile})

	m := NewPatternMatcher(s, nil)
	pattern := rules.Pattern{
		Binding:  "fn",
		FactType: "Function",
		Conditions: []rules.Condition{
			{Path: "location.file", Op: rules.OpEq, Value: strLit("a.py")},
		},
	}

	tuples := m.Match([]rules.Pattern{pattern})
	if len(tuples) != 1 {
		t.Fatalf("Match() produced %d tuples, want 1", len(tuples))
	}
	got, _ := tuples[0].ByName("fn")
	if got.FactType.Function.Name != "f" {
		t.Errorf("matched fact = %q, want %q", got.FactType.Function.Name, "f")
	}
}

// TestCandidatesFor_FlowConditionUsesFlowIndex verifies that a pattern
// matching a flow-bearing kind with an equality condition on its flow
// field resolves through the flow index: a TaintSink on a different flow
// must not survive even though both share FactTypeTaintSink.
func TestCandidatesFor_FlowConditionUsesFlowIndex(t *testing.T) {
	t.Parallel()

	target := ir.NewFlowId()
	other := ir.NewFlowId()

	wanted := mustFactAt(t, ir.NewTaintSink(ir.TaintSinkData{
		Func: "os.system", ConsumesFlow: target, Category: "command-injection", Severity: ir.SeverityCritical,
	}), "a.py", 7)
	unwanted := mustFactAt(t, ir.NewTaintSink(ir.TaintSinkData{
		Func: "eval", ConsumesFlow: other, Category: "command-injection", Severity: ir.SeverityCritical,
	}), "a.py", 9)
	s := store.New([]ir.Fact{wanted, unwanted})

	m := NewPatternMatcher(s, nil)
	pattern := rules.Pattern{
		Binding:  "sink",
		FactType: "TaintSink",
		Conditions: []rules.Condition{
			{Path: "consumes_flow", Op: rules.OpEq, Value: strLit(target.String())},
		},
	}

	tuples := m.Match([]rules.Pattern{pattern})
	if len(tuples) != 1 {
		t.Fatalf("Match() produced %d tuples, want 1", len(tuples))
	}
	got, _ := tuples[0].ByName("sink")
	if got.FactType.TaintSink.Func != "os.system" {
		t.Errorf("matched fact = %q, want %q", got.FactType.TaintSink.Func, "os.system")
	}
}
