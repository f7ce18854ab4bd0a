package constraints

import (
	"io"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

func pair(b solver.Backend, pred func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort]) func() (model, error) {
	return func() (model, error) {
		x, y, ok, err := dsl.Find2(b, pred)
		if !ok || err != nil {
			return model{}, err
		}
		return found("a = %d, b = %d", x, y), nil
	}
}

func IntegerOperations(w io.Writer, b solver.Backend) error {
	printSrc(w, `
func compare(a, b int) int {
    if a > b {
        return 1
    } else if a < b {
        return -1
    }
    return 0
}`)
	paths := []struct {
		path string
		pred func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort]
	}{
		{"a > b", func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
			return dsl.GT(a, b)
		}},
		{"!(a > b) && (a < b)", func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Not(dsl.GT(a, b)), dsl.LT(a, b))
		}},
		{"!(a > b) && !(a < b)", func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
			return dsl.And(dsl.Not(dsl.GT(a, b)), dsl.Not(dsl.LT(a, b)))
		}},
	}
	for _, p := range paths {
		if err := solve(w, p.path, pair(b, p.pred)); err != nil {
			return err
		}
	}

	printSrc(w, `
func split(a, b int) bool {
    return a*b == 12 && a+b == 7 && a < b
}`)
	if err := solve(w, "(a * b == 12) && (a + b == 7) && (a < b)", pair(b, func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		return dsl.All(dsl.Eq(dsl.Mul(a, b), 12), dsl.Eq(dsl.Add(a, b), 7), dsl.LT(a, b))
	})); err != nil {
		return err
	}
	return solve(w, "(a / 3 == -2) && (a % 3 == 2) && (b == -a)", pair(b, func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		return dsl.All(dsl.Eq(dsl.Div(a, 3), -2), dsl.Eq(dsl.Mod(a, 3), 2), dsl.Eq(b, dsl.Neg(a)))
	}))
}

func MixedOperations(w io.Writer, b solver.Backend) error {
	printSrc(w, `
func mixed(even bool, a, b int) int {
    result := b
    if even {
        result = a + b
    }
    if a%2 == 0 && result < 10 {
        return 1
    }
    return 0
}`)
	paths := []struct {
		path string
		even bool
		lt   bool
	}{
		{"(a % 2 == 0) && (result < 10)", true, true},
		{"(a % 2 != 0) && (result < 10)", false, true},
		{"(a % 2 == 0) && (result >= 10)", true, false},
		{"(a % 2 != 0) && (result >= 10)", false, false},
	}
	for _, p := range paths {
		err := solve(w, p.path, func() (model, error) {
			even, x, y, ok, err := dsl.Find3(b, func(even dsl.Val[bool], a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
				result := dsl.Ite(even, dsl.Add(a, b), b)
				parity := dsl.Eq(dsl.Mod(a, 2), 0)
				if !p.even {
					parity = dsl.Not(parity)
				}
				bound := dsl.LT(result, 10)
				if !p.lt {
					bound = dsl.Not(bound)
				}
				return dsl.All(dsl.Iff(even, parity), bound, dsl.GE(a, 0), dsl.GE(b, 0))
			})
			if !ok || err != nil {
				return model{}, err
			}
			return found("even = %t, a = %d, b = %d", even, x, y), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
