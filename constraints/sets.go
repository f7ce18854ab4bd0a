package constraints

import (
	"io"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

func SetOperations(w io.Writer, b solver.Backend) error {
	printSrc(w, `
func lookup(seen map[int]bool, index, value int) int {
    if !seen[index] {
        return -1
    }
    seen[index+1] = true
    if seen[value] {
        return 1
    }
    return 0
}`)
	type setPred func(seen dsl.Val[dsl.IntSet], index, value dsl.Val[int]) dsl.Tree[dsl.BoolSort]
	run := func(path string, pred setPred) error {
		return solve(w, path, func() (model, error) {
			seen, index, value, ok, err := dsl.Find3(b, pred)
			if !ok || err != nil {
				return model{}, err
			}
			return found("seen = %s, index = %d, value = %d", seen, index, value), nil
		})
	}
	small := func(seen dsl.Val[dsl.IntSet]) dsl.Tree[dsl.BoolSort] {
		return dsl.SetEq(seen, dsl.Insert(dsl.SetOf(0, 1, 2), 3))
	}

	if err := run("!(index in seen)", func(seen dsl.Val[dsl.IntSet], index, value dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		return dsl.All(small(seen), dsl.Not(dsl.Member(index, seen)), dsl.GE(index, 0))
	}); err != nil {
		return err
	}
	if err := run("(index in seen) && (value in insert(seen, index + 1))", func(seen dsl.Val[dsl.IntSet], index, value dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		after := dsl.Insert(seen, dsl.Add(index, 1))
		return dsl.All(small(seen), dsl.Member(index, seen), dsl.Member(value, after), dsl.Not(dsl.Member(value, seen)))
	}); err != nil {
		return err
	}
	return run("(index in seen) && !(value in insert(seen, index + 1))", func(seen dsl.Val[dsl.IntSet], index, value dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		after := dsl.Insert(seen, dsl.Add(index, 1))
		return dsl.All(small(seen), dsl.Member(index, seen), dsl.Not(dsl.Member(value, after)), dsl.LT(dsl.Mul(value, value), 2))
	})
}
