package constraints

import (
	"io"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

type boolPred func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort]

func triple(b solver.Backend, pred boolPred) func() (model, error) {
	return func() (model, error) {
		p, q, r, ok, err := dsl.Find3(b, pred)
		if !ok || err != nil {
			return model{}, err
		}
		return found("p = %t, q = %t, r = %t", p, q, r), nil
	}
}

func BooleanOperations(w io.Writer, b solver.Backend) error {
	printSrc(w, `
func gate(p, q, r bool) int {
    if p != q {
        if !r {
            return 1
        }
        return 2
    }
    if p && r {
        return 3
    }
    return 4
}`)
	paths := []struct {
		path string
		pred boolPred
	}{
		{"(p != q) && !r", func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Xor(p, q), dsl.Not(r))
		}},
		{"(p != q) && r", func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Xor(p, q), r)
		}},
		{"(p == q) && (p && r)", func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Iff(p, q), dsl.And(p, r))
		}},
		{"(p == q) && !(p && r)", func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Iff(p, q), dsl.Not(dsl.And(p, r)))
		}},
	}
	for _, path := range paths {
		if err := solve(w, path.path, triple(b, path.pred)); err != nil {
			return err
		}
	}
	return solveUnsat(w, "(p => q) && (q => r) && p && !r", triple(b, func(p, q, r dsl.Val[bool]) dsl.Tree[dsl.BoolSort] {
		return dsl.All(dsl.Implies(p, q), dsl.Implies(q, r), dsl.And(p, dsl.Not(r)))
	}))
}
