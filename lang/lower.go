package lang

import (
	"fmt"

	"github.com/expr-lang/expr/ast"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

// call lowers a function call of the constraint language. arity < 0 means
// variadic.
type call struct {
	arity int
	lower func(args []dsl.Expr) (dsl.Expr, error)
}

func op(o solver.Op) func([]dsl.Expr) (dsl.Expr, error) {
	return func(args []dsl.Expr) (dsl.Expr, error) {
		return dsl.Apply(o, args...)
	}
}

var calls map[string]call

func init() {
	calls = map[string]call{
		"set":       {-1, lowerSet},
		"insert":    {2, op(solver.OpInsert)},
		"member":    {2, op(solver.OpMember)},
		"union":     {2, op(solver.OpUnion)},
		"intersect": {2, op(solver.OpIntersect)},
		"diff":      {2, op(solver.OpDifference)},
		"subset":    {2, op(solver.OpSubset)},
		"seteq":     {2, lowerSetEq},
		"distinct":  {-1, lowerDistinct},
		"implies":   {2, op(solver.OpImplies)},
		"ite":       {3, op(solver.OpIte)},
		"div":       {2, op(solver.OpDiv)},
		"mod":       {2, op(solver.OpMod)},
	}
}

var binaryOps = map[string]solver.Op{
	"&&":  solver.OpAnd,
	"and": solver.OpAnd,
	"||":  solver.OpOr,
	"or":  solver.OpOr,
	"==":  solver.OpEq,
	"<":   solver.OpLT,
	"<=":  solver.OpLE,
	">":   solver.OpGT,
	">=":  solver.OpGE,
	"+":   solver.OpAdd,
	"-":   solver.OpSub,
	"*":   solver.OpMul,
	"/":   solver.OpDiv,
	"%":   solver.OpMod,
}

// lower translates an expr syntax tree into a dsl expression over vars.
func lower(node ast.Node, vars map[string]dsl.Expr) (dsl.Expr, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return dsl.Erase(dsl.IntConst(n.Value)), nil
	case *ast.BoolNode:
		return dsl.Erase(dsl.BoolConst(n.Value)), nil
	case *ast.IdentifierNode:
		e, ok := vars[n.Value]
		if !ok {
			return dsl.Expr{}, fmt.Errorf("undeclared name %s", n.Value)
		}
		return e, nil
	case *ast.UnaryNode:
		return lowerUnary(n, vars)
	case *ast.BinaryNode:
		return lowerBinary(n, vars)
	case *ast.ConditionalNode:
		args, err := lowerAll(vars, n.Cond, n.Exp1, n.Exp2)
		if err != nil {
			return dsl.Expr{}, err
		}
		return wrap(node, solver.OpIte, args...)
	case *ast.ArrayNode:
		args, err := lowerAll(vars, n.Nodes...)
		if err != nil {
			return dsl.Expr{}, err
		}
		return at(node)(lowerSet(args))
	case *ast.CallNode:
		return lowerCall(n, vars)
	default:
		return dsl.Expr{}, fmt.Errorf("unsupported expression %s", node)
	}
}

func lowerAll(vars map[string]dsl.Expr, nodes ...ast.Node) ([]dsl.Expr, error) {
	args := make([]dsl.Expr, len(nodes))
	for i, n := range nodes {
		e, err := lower(n, vars)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return args, nil
}

func lowerUnary(n *ast.UnaryNode, vars map[string]dsl.Expr) (dsl.Expr, error) {
	if lit, ok := n.Node.(*ast.IntegerNode); ok && n.Operator == "-" {
		return dsl.Erase(dsl.IntConst(-lit.Value)), nil
	}
	arg, err := lower(n.Node, vars)
	if err != nil {
		return dsl.Expr{}, err
	}
	switch n.Operator {
	case "!", "not":
		return wrap(n, solver.OpNot, arg)
	case "-":
		return wrap(n, solver.OpNeg, arg)
	case "+":
		if arg.Kind() != solver.KindInt {
			return dsl.Expr{}, fmt.Errorf("%s: operand has sort %s, want Int", n, arg.Kind())
		}
		return arg, nil
	default:
		return dsl.Expr{}, fmt.Errorf("unsupported operator %s in %s", n.Operator, n)
	}
}

func lowerBinary(n *ast.BinaryNode, vars map[string]dsl.Expr) (dsl.Expr, error) {
	args, err := lowerAll(vars, n.Left, n.Right)
	if err != nil {
		return dsl.Expr{}, err
	}
	switch n.Operator {
	case "!=":
		eq, err := wrap(n, solver.OpEq, args...)
		if err != nil {
			return dsl.Expr{}, err
		}
		return wrap(n, solver.OpNot, eq)
	case "in":
		return wrap(n, solver.OpMember, args...)
	}
	o, ok := binaryOps[n.Operator]
	if !ok {
		return dsl.Expr{}, fmt.Errorf("unsupported operator %s in %s", n.Operator, n)
	}
	return wrap(n, o, args...)
}

func lowerCall(n *ast.CallNode, vars map[string]dsl.Expr) (dsl.Expr, error) {
	ident, ok := n.Callee.(*ast.IdentifierNode)
	if !ok {
		return dsl.Expr{}, fmt.Errorf("unsupported call %s", n)
	}
	c, ok := calls[ident.Value]
	if !ok {
		return dsl.Expr{}, fmt.Errorf("unknown function %s", ident.Value)
	}
	if c.arity >= 0 && len(n.Arguments) != c.arity {
		return dsl.Expr{}, fmt.Errorf("%s: %s takes %d arguments, got %d", n, ident.Value, c.arity, len(n.Arguments))
	}
	args, err := lowerAll(vars, n.Arguments...)
	if err != nil {
		return dsl.Expr{}, err
	}
	return at(n)(c.lower(args))
}

func lowerSet(elems []dsl.Expr) (dsl.Expr, error) {
	s := dsl.Erase(dsl.EmptySet())
	for _, e := range elems {
		var err error
		if s, err = dsl.Apply(solver.OpInsert, s, e); err != nil {
			return dsl.Expr{}, err
		}
	}
	return s, nil
}

func lowerSetEq(args []dsl.Expr) (dsl.Expr, error) {
	for _, a := range args {
		if a.Kind() != solver.KindIntSet {
			return dsl.Expr{}, fmt.Errorf("seteq of %s: %w", a.Kind(), solver.ErrKind)
		}
	}
	return dsl.Apply(solver.OpEq, args...)
}

func lowerDistinct(args []dsl.Expr) (dsl.Expr, error) {
	if len(args) < 2 {
		for _, a := range args {
			if a.Kind() != solver.KindInt {
				return dsl.Expr{}, fmt.Errorf("distinct of %s: %w", a.Kind(), solver.ErrKind)
			}
		}
		return dsl.Erase(dsl.BoolConst(true)), nil
	}
	return dsl.Apply(solver.OpDistinct, args...)
}

func wrap(n ast.Node, o solver.Op, args ...dsl.Expr) (dsl.Expr, error) {
	return at(n)(dsl.Apply(o, args...))
}

// at attaches the source of n to a failed lowering step.
func at(n ast.Node) func(dsl.Expr, error) (dsl.Expr, error) {
	return func(e dsl.Expr, err error) (dsl.Expr, error) {
		if err != nil {
			return dsl.Expr{}, fmt.Errorf("%s: %w", n, err)
		}
		return e, nil
	}
}
