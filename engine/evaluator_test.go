package engine

import (
	"testing"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
)

func factTuple(t *testing.T, binding string, ft ir.FactType) Tuple {
	t.Helper()
	sl, _ := ir.NewLineNumber(1)
	loc, err := ir.NewSourceLocation(ir.NewProjectPath("a.py"), sl, sl, nil, nil)
	if err != nil {
		t.Fatalf("NewSourceLocation: %v", err)
	}
	conf, _ := ir.NewConfidence(0.8)
	prov, _ := ir.NewProvenance("TestExtractor", "1.0.0", conf)
	f := ir.NewFact(ft, loc, prov)
	return Tuple{Bindings: []Binding{{Name: binding, Fact: f}}}
}

func TestExprEvaluator_Comparisons(t *testing.T) {
	t.Parallel()

	tuple := factTuple(t, "fn", ir.NewFunction(ir.FunctionData{Name: "handler"}))
	eval := NewExprEvaluator()

	cases := []struct {
		name string
		expr rules.Expr
		want bool
	}{
		{
			"eq string match",
			rules.NewBinaryExpr(
				rules.NewPathExpr([]string{"fn", "name"}), rules.BinEq,
				rules.NewLiteralExpr(rules.Literal{Kind: rules.LiteralString, Str: "handler"}),
			),
			true,
		},
		{
			"eq string mismatch",
			rules.NewBinaryExpr(
				rules.NewPathExpr([]string{"fn", "name"}), rules.BinEq,
				rules.NewLiteralExpr(rules.Literal{Kind: rules.LiteralString, Str: "other"}),
			),
			false,
		},
		{
			"kind mismatch is false",
			rules.NewBinaryExpr(
				rules.NewPathExpr([]string{"fn", "name"}), rules.BinEq,
				rules.NewLiteralExpr(rules.Literal{Kind: rules.LiteralNumber, Num: 1}),
			),
			false,
		},
		{
			"and short circuits",
			rules.NewBinaryExpr(
				rules.NewLiteralExpr(rules.Literal{Kind: rules.LiteralBoolean, Bool: false}), rules.BinAnd,
				rules.NewPathExpr([]string{"fn", "missing_field"}),
			),
			false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := eval.EvalBool(tc.expr, tuple); got != tc.want {
				t.Errorf("EvalBool(%s) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func TestExprEvaluator_ExistsAndCount(t *testing.T) {
	t.Parallel()

	tuple := factTuple(t, "fn", ir.NewFunction(ir.FunctionData{Name: "handler"}))
	eval := NewExprEvaluator()

	existsBound := rules.NewFunctionCallExpr("exists", []rules.Expr{rules.NewPathExpr([]string{"fn"})})
	if !eval.EvalBool(existsBound, tuple) {
		t.Errorf("exists(fn) = false, want true")
	}

	existsUnbound := rules.NewFunctionCallExpr("exists", []rules.Expr{rules.NewPathExpr([]string{"missing"})})
	if eval.EvalBool(existsUnbound, tuple) {
		t.Errorf("exists(missing) = true, want false")
	}

	unknownFn := rules.NewFunctionCallExpr("no_such_function", nil)
	if eval.EvalBool(unknownFn, tuple) {
		t.Errorf("unknown function call evaluated true, want false")
	}
}
