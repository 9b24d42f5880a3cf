package engine

import (
	"strings"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/rules"
)

// ExprEvaluator evaluates a rules.Expr against a bound Tuple. It is
// stateless; a single instance is safe to reuse (and share across
// goroutines) for every rule evaluated over a given store, since
// evaluation never mutates anything it touches.
type ExprEvaluator struct{}

// NewExprEvaluator returns an ExprEvaluator.
func NewExprEvaluator() *ExprEvaluator { return &ExprEvaluator{} }

// EvalBool evaluates expr against tuple and coerces the result to a bool:
// a FactValueBoolean resolves to its value, anything else (including a
// missing path) is false. This is the entry point used for a rule's
// where-clause.
func (e *ExprEvaluator) EvalBool(expr rules.Expr, tuple Tuple) bool {
	v, ok := e.Eval(expr, tuple)
	if !ok || v.Kind != ir.FactValueBoolean {
		return false
	}
	return v.Bool
}

// Eval evaluates expr against tuple, returning the resolved FactValue. ok
// is false when a path segment does not resolve to any field - the caller
// (EvalBool, or a parent Eval for a nested sub-expression) treats that as
// falsy rather than erroring, matching the engine's "missing field is not
// fatal" failure semantics.
func (e *ExprEvaluator) Eval(expr rules.Expr, tuple Tuple) (ir.FactValue, bool) {
	switch expr.Kind {
	case rules.ExprLiteral:
		return literalToValue(expr.Literal), true
	case rules.ExprPath:
		return e.resolvePath(expr.Path, tuple)
	case rules.ExprFunctionCall:
		return e.evalFunctionCall(expr, tuple)
	case rules.ExprBinary:
		return e.evalBinary(expr, tuple)
	default:
		return ir.FactValue{}, false
	}
}

func literalToValue(l rules.Literal) ir.FactValue {
	switch l.Kind {
	case rules.LiteralString:
		return ir.NewStringValue(l.Str)
	case rules.LiteralNumber:
		return ir.NewNumberValue(l.Num)
	case rules.LiteralBoolean:
		return ir.NewBooleanValue(l.Bool)
	default:
		return ir.NullValue
	}
}

// resolvePath walks a dotted path whose leading segment names a pattern
// binding; the remainder is delegated to ir.Fact.Field, the single place
// per-variant field resolution lives.
func (e *ExprEvaluator) resolvePath(segments []string, tuple Tuple) (ir.FactValue, bool) {
	if len(segments) == 0 {
		return ir.FactValue{}, false
	}
	fact, ok := tuple.ByName(segments[0])
	if !ok {
		return ir.FactValue{}, false
	}
	if len(segments) == 1 {
		// A bare binding name with no further field - not a resolvable
		// scalar value, only useful as an argument to exists().
		return ir.FactValue{}, false
	}
	return fact.Field(strings.Join(segments[1:], "."))
}

// evalFunctionCall implements the closed vocabulary of functions a
// where-clause may call, per spec §4.2.2/§9: `count` and `exists`. Any other name is
// unknown and evaluates to ok=false.
func (e *ExprEvaluator) evalFunctionCall(expr rules.Expr, tuple Tuple) (ir.FactValue, bool) {
	switch expr.FunctionName {
	case "exists":
		if len(expr.FunctionArgs) != 1 || expr.FunctionArgs[0].Kind != rules.ExprPath {
			return ir.FactValue{}, false
		}
		_, ok := e.resolvePathOrBinding(expr.FunctionArgs[0].Path, tuple)
		return ir.NewBooleanValue(ok), true
	case "count":
		if len(expr.FunctionArgs) != 1 {
			return ir.FactValue{}, false
		}
		v, ok := e.Eval(expr.FunctionArgs[0], tuple)
		if !ok || v.Kind != ir.FactValueArray {
			return ir.NewNumberValue(0), true
		}
		return ir.NewNumberValue(float64(len(v.Array))), true
	default:
		return ir.FactValue{}, false
	}
}

// resolvePathOrBinding is used by exists(), which must also accept a
// bare binding name (e.g. exists(sanitizer)) to ask whether that pattern
// matched at all, not just whether a field on it resolves.
func (e *ExprEvaluator) resolvePathOrBinding(segments []string, tuple Tuple) (ir.FactValue, bool) {
	if len(segments) == 1 {
		_, ok := tuple.ByName(segments[0])
		if !ok {
			return ir.FactValue{}, false
		}
		return ir.NewBooleanValue(true), true
	}
	return e.resolvePath(segments, tuple)
}

// evalBinary evaluates a Binary expression. And/Or short-circuit on their
// left operand and require boolean operands (a non-boolean operand makes
// the whole expression false, never a type error). Comparison operators
// respect the numeric/string dichotomy: comparing values of different
// kinds evaluates to false rather than coercing.
func (e *ExprEvaluator) evalBinary(expr rules.Expr, tuple Tuple) (ir.FactValue, bool) {
	switch expr.Op {
	case rules.BinAnd:
		l := e.EvalBool(*expr.Left, tuple)
		if !l {
			return ir.NewBooleanValue(false), true
		}
		return ir.NewBooleanValue(e.EvalBool(*expr.Right, tuple)), true
	case rules.BinOr:
		l := e.EvalBool(*expr.Left, tuple)
		if l {
			return ir.NewBooleanValue(true), true
		}
		return ir.NewBooleanValue(e.EvalBool(*expr.Right, tuple)), true
	case rules.BinEq, rules.BinNe, rules.BinLt, rules.BinGt, rules.BinLe, rules.BinGe:
		lv, lok := e.Eval(*expr.Left, tuple)
		rv, rok := e.Eval(*expr.Right, tuple)
		if !lok || !rok {
			return ir.NewBooleanValue(false), true
		}
		return ir.NewBooleanValue(compare(lv, rv, expr.Op)), true
	default:
		return ir.FactValue{}, false
	}
}

// compare applies a comparison operator between two resolved values.
// Values of different FactValueKind never compare true, for any operator
// including Ne.
func compare(l, r ir.FactValue, op rules.BinaryOp) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ir.FactValueNumber:
		switch op {
		case rules.BinEq:
			return l.Num == r.Num
		case rules.BinNe:
			return l.Num != r.Num
		case rules.BinLt:
			return l.Num < r.Num
		case rules.BinGt:
			return l.Num > r.Num
		case rules.BinLe:
			return l.Num <= r.Num
		case rules.BinGe:
			return l.Num >= r.Num
		}
	case ir.FactValueString:
		switch op {
		case rules.BinEq:
			return l.Str == r.Str
		case rules.BinNe:
			return l.Str != r.Str
		case rules.BinLt:
			return l.Str < r.Str
		case rules.BinGt:
			return l.Str > r.Str
		case rules.BinLe:
			return l.Str <= r.Str
		case rules.BinGe:
			return l.Str >= r.Str
		}
	case ir.FactValueBoolean:
		switch op {
		case rules.BinEq:
			return l.Bool == r.Bool
		case rules.BinNe:
			return l.Bool != r.Bool
		}
	case ir.FactValueNull:
		return op == rules.BinEq
	}
	return false
}
