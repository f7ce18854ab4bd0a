package lang

import (
	"errors"
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

var ErrDivByZero = errors.New("division by zero")

var keywords = map[string]bool{
	"true": true, "false": true, "nil": true,
	"not": true, "and": true, "or": true, "in": true,
	"let": true, "if": true, "else": true,
	"matches": true, "contains": true, "startsWith": true, "endsWith": true,
}

// checkProgram evaluates the constraint over plain host values. Operators
// whose expr meaning differs from the solver's are rewritten into calls
// first.
type checkProgram struct {
	prg *vm.Program
}

// rewrite is an expr patch visitor. Children are visited before parents.
type rewrite struct{}

func (rewrite) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}
	callee := map[string]string{
		"/":  "div",
		"%":  "mod",
		"==": "eq",
		"!=": "eq",
		"in": "member",
	}[n.Operator]
	if callee == "" {
		return
	}
	var patched ast.Node = &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: callee},
		Arguments: []ast.Node{n.Left, n.Right},
	}
	if n.Operator == "!=" {
		patched = &ast.UnaryNode{Operator: "!", Node: patched}
	}
	ast.Patch(node, patched)
}

func zero(k solver.Kind) any {
	switch k {
	case solver.KindBool:
		return false
	case solver.KindInt:
		return 0
	default:
		return []int{}
	}
}

func compileCheck(src string, decls []Decl) (*checkProgram, error) {
	env := make(map[string]any, len(decls))
	for _, d := range decls {
		env[d.Name] = zero(d.Kind)
	}
	opts := append([]expr.Option{expr.Env(env), expr.Patch(rewrite{})}, checkFuncs()...)
	prg, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	return &checkProgram{prg: prg}, nil
}

// Verify evaluates the constraint under a with ordinary integer semantics.
// Every declared name must be assigned.
func (p *Program) Verify(a Assignment) (bool, error) {
	env := make(map[string]any, len(p.decls))
	for _, d := range p.decls {
		v, ok := a[d.Name]
		if !ok {
			return false, fmt.Errorf("%s is not assigned", d.Name)
		}
		if s, ok := v.(dsl.IntSet); ok {
			v = []int(s)
		}
		env[d.Name] = v
	}
	out, err := expr.Run(p.check.prg, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("constraint evaluated to %v, want a bool", out)
	}
	return ok, nil
}

func checkFuncs() []expr.Option {
	return []expr.Option{
		expr.Function("div", func(params ...any) (any, error) {
			q, _, err := divmod(params[0], params[1])
			return q, err
		},
			new(func(int, int) int)),
		expr.Function("mod", func(params ...any) (any, error) {
			_, r, err := divmod(params[0], params[1])
			return r, err
		},
			new(func(int, int) int)),
		expr.Function("eq", func(params ...any) (any, error) {
			return equal(params[0], params[1])
		},
			new(func(any, any) bool)),
		expr.Function("set", func(params ...any) (any, error) {
			return toSet(params)
		},
			new(func(...int) []int)),
		expr.Function("member", func(params ...any) (any, error) {
			x, s, err := intAndSet(params[0], params[1])
			if err != nil {
				return nil, err
			}
			return s.Contains(x), nil
		},
			new(func(int, any) bool)),
		expr.Function("insert", func(params ...any) (any, error) {
			x, s, err := intAndSet(params[1], params[0])
			if err != nil {
				return nil, err
			}
			return []int(dsl.NewIntSet(append(s, x)...)), nil
		},
			new(func(any, int) []int)),
		expr.Function("union", setOp(func(a, b dsl.IntSet, x int) bool {
			return a.Contains(x) || b.Contains(x)
		}),
			new(func(any, any) []int)),
		expr.Function("intersect", setOp(func(a, b dsl.IntSet, x int) bool {
			return a.Contains(x) && b.Contains(x)
		}),
			new(func(any, any) []int)),
		expr.Function("diff", setOp(func(a, b dsl.IntSet, x int) bool {
			return a.Contains(x) && !b.Contains(x)
		}),
			new(func(any, any) []int)),
		expr.Function("subset", func(params ...any) (any, error) {
			a, b, err := twoSets(params)
			if err != nil {
				return nil, err
			}
			for _, x := range a {
				if !b.Contains(x) {
					return false, nil
				}
			}
			return true, nil
		},
			new(func(any, any) bool)),
		expr.Function("seteq", func(params ...any) (any, error) {
			a, b, err := twoSets(params)
			if err != nil {
				return nil, err
			}
			return slices.Equal(a, b), nil
		},
			new(func(any, any) bool)),
		expr.Function("distinct", func(params ...any) (any, error) {
			seen := map[int]bool{}
			for _, p := range params {
				x, err := toInt(p)
				if err != nil {
					return nil, err
				}
				if seen[x] {
					return false, nil
				}
				seen[x] = true
			}
			return true, nil
		},
			new(func(...int) bool)),
		expr.Function("implies", func(params ...any) (any, error) {
			a, aok := params[0].(bool)
			b, bok := params[1].(bool)
			if !aok || !bok {
				return nil, fmt.Errorf("implies(%v, %v): want bools", params[0], params[1])
			}
			return !a || b, nil
		},
			new(func(bool, bool) bool)),
		expr.Function("ite", func(params ...any) (any, error) {
			c, ok := params[0].(bool)
			if !ok {
				return nil, fmt.Errorf("ite condition %v is not a bool", params[0])
			}
			if c {
				return params[1], nil
			}
			return params[2], nil
		},
			new(func(bool, any, any) any)),
	}
}

// divmod is Euclidean division: the remainder is never negative.
func divmod(x, y any) (q, r int, err error) {
	a, err := toInt(x)
	if err != nil {
		return 0, 0, err
	}
	b, err := toInt(y)
	if err != nil {
		return 0, 0, err
	}
	if b == 0 {
		return 0, 0, ErrDivByZero
	}
	q, r = a/b, a%b
	if r < 0 {
		if b > 0 {
			q, r = q-1, r+b
		} else {
			q, r = q+1, r-b
		}
	}
	return q, r, nil
}

func equal(a, b any) (bool, error) {
	switch a := a.(type) {
	case bool:
		b, ok := b.(bool)
		return ok && a == b, nil
	case int:
		b, err := toInt(b)
		return err == nil && a == b, nil
	default:
		x, y, err := twoSets([]any{a, b})
		if err != nil {
			return false, err
		}
		return slices.Equal(x, y), nil
	}
}

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%v is not an integer", v)
	}
}

func toSet(v any) (dsl.IntSet, error) {
	switch v := v.(type) {
	case dsl.IntSet:
		return v, nil
	case []int:
		return dsl.NewIntSet(v...), nil
	case []any:
		xs := make([]int, len(v))
		for i, e := range v {
			x, err := toInt(e)
			if err != nil {
				return nil, err
			}
			xs[i] = x
		}
		return dsl.NewIntSet(xs...), nil
	default:
		return nil, fmt.Errorf("%v is not a set", v)
	}
}

func intAndSet(x, s any) (int, dsl.IntSet, error) {
	i, err := toInt(x)
	if err != nil {
		return 0, nil, err
	}
	set, err := toSet(s)
	return i, set, err
}

func twoSets(params []any) (dsl.IntSet, dsl.IntSet, error) {
	a, err := toSet(params[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := toSet(params[1])
	return a, b, err
}

func setOp(keep func(a, b dsl.IntSet, x int) bool) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		a, b, err := twoSets(params)
		if err != nil {
			return nil, err
		}
		var out []int
		for _, x := range dsl.NewIntSet(append(slices.Clone(a), b...)...) {
			if keep(a, b, x) {
				out = append(out, x)
			}
		}
		return []int(dsl.NewIntSet(out...)), nil
	}
}
