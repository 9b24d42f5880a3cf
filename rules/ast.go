package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LiteralKind discriminates the variant held by a Literal.
type LiteralKind uint8

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralNull
)

// Literal is a constant value appearing in a Condition or Expr.
type Literal struct {
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
}

// UnmarshalYAML accepts a bare scalar (string, number, or bool) and
// classifies it, so rule authors write `value: 10` or `value: "foo"`
// directly instead of a tagged object.
func (l *Literal) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*l = literalFromAny(raw)
	return nil
}

func literalFromAny(raw interface{}) Literal {
	switch v := raw.(type) {
	case nil:
		return Literal{Kind: LiteralNull}
	case bool:
		return Literal{Kind: LiteralBoolean, Bool: v}
	case string:
		return Literal{Kind: LiteralString, Str: v}
	case int:
		return Literal{Kind: LiteralNumber, Num: float64(v)}
	case int64:
		return Literal{Kind: LiteralNumber, Num: float64(v)}
	case float64:
		return Literal{Kind: LiteralNumber, Num: v}
	default:
		return Literal{Kind: LiteralString, Str: fmt.Sprintf("%v", v)}
	}
}

// String renders a debug form.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return fmt.Sprintf("%q", l.Str)
	case LiteralNumber:
		return fmt.Sprintf("%v", l.Num)
	case LiteralBoolean:
		return fmt.Sprintf("%v", l.Bool)
	default:
		return "null"
	}
}

// BinaryOp is the set of operators a Binary expression may apply.
type BinaryOp string

const (
	BinAnd BinaryOp = "and"
	BinOr  BinaryOp = "or"
	BinEq  BinaryOp = "eq"
	BinNe  BinaryOp = "ne"
	BinLt  BinaryOp = "lt"
	BinGt  BinaryOp = "gt"
	BinLe  BinaryOp = "le"
	BinGe  BinaryOp = "ge"
)

// ExprKind discriminates the variant held by an Expr.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprPath
	ExprFunctionCall
	ExprBinary
)

// Expr is the where-clause expression language: a literal, a dotted path
// into a bound fact, a call to one of the built-in functions, or a binary
// combination of two sub-expressions.
type Expr struct {
	Kind ExprKind

	Literal Literal

	// Path segments, e.g. ["sink", "location", "file"]; the leading
	// segment is the pattern binding name.
	Path []string

	FunctionName string
	FunctionArgs []Expr

	Left  *Expr
	Op    BinaryOp
	Right *Expr
}

// NewLiteralExpr constructs a literal Expr.
func NewLiteralExpr(l Literal) Expr { return Expr{Kind: ExprLiteral, Literal: l} }

// NewPathExpr constructs a path Expr.
func NewPathExpr(segments []string) Expr { return Expr{Kind: ExprPath, Path: segments} }

// NewFunctionCallExpr constructs a function-call Expr.
func NewFunctionCallExpr(name string, args []Expr) Expr {
	return Expr{Kind: ExprFunctionCall, FunctionName: name, FunctionArgs: args}
}

// NewBinaryExpr constructs a binary Expr.
func NewBinaryExpr(left Expr, op BinaryOp, right Expr) Expr {
	return Expr{Kind: ExprBinary, Left: &left, Op: op, Right: &right}
}

// exprYAML is the YAML shape Expr.UnmarshalYAML decodes. The grammar is
// a small recursive-descent-friendly
// map shape:
//
//	{literal: <scalar>}
//	{path: [segments...]}
//	{call: {name: ..., args: [...]}}
//	{binary: {left: ..., op: ..., right: ...}}
type exprYAML struct {
	Literal *interface{}    `yaml:"literal,omitempty"`
	Path    []string        `yaml:"path,omitempty"`
	Call    *callYAML       `yaml:"call,omitempty"`
	Binary  *binaryYAML     `yaml:"binary,omitempty"`
}

type callYAML struct {
	Name string      `yaml:"name"`
	Args []exprYAML  `yaml:"args"`
}

type binaryYAML struct {
	Left  exprYAML `yaml:"left"`
	Op    BinaryOp `yaml:"op"`
	Right exprYAML `yaml:"right"`
}

// UnmarshalYAML implements the Expr grammar described on exprYAML.
func (e *Expr) UnmarshalYAML(value *yaml.Node) error {
	var raw exprYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	expr, err := raw.toExpr()
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

func (y exprYAML) toExpr() (Expr, error) {
	switch {
	case y.Literal != nil:
		return NewLiteralExpr(literalFromAny(*y.Literal)), nil
	case y.Path != nil:
		return NewPathExpr(y.Path), nil
	case y.Call != nil:
		args := make([]Expr, 0, len(y.Call.Args))
		for _, a := range y.Call.Args {
			ae, err := a.toExpr()
			if err != nil {
				return Expr{}, err
			}
			args = append(args, ae)
		}
		return NewFunctionCallExpr(y.Call.Name, args), nil
	case y.Binary != nil:
		left, err := y.Binary.Left.toExpr()
		if err != nil {
			return Expr{}, err
		}
		right, err := y.Binary.Right.toExpr()
		if err != nil {
			return Expr{}, err
		}
		return NewBinaryExpr(left, y.Binary.Op, right), nil
	default:
		return Expr{}, fmt.Errorf("where-clause expression has no recognized shape (literal/path/call/binary)")
	}
}
