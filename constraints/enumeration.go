package constraints

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

// Enumeration lists every input reaching a branch. Models come back in solver
// order, so they are sorted before printing.
func Enumeration(w io.Writer, b solver.Backend) error {
	printSrc(w, `
func accumulate(j int) int {
    result := j
    for i := 1; i <= 10; i++ {
        result += i
    }
    if result%2 == 0 {
        result++
    }
    return result
}`)
	for _, even := range []bool{true, false} {
		path := "(result % 2 == 0) && (0 <= j < 6)"
		if !even {
			path = "(result % 2 != 0) && (0 <= j < 6)"
		}
		printPath(w, path)
		var js []int
		for j, err := range dsl.FindAll(b, func(j dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
			result := dsl.Add(j, 0)
			for i := 1; i <= 10; i++ {
				result = dsl.Add(result, i)
			}
			parity := dsl.Eq(dsl.Mod(result, 2), 0)
			if !even {
				parity = dsl.Not(parity)
			}
			return dsl.All(parity, dsl.GE(j, 0), dsl.LT(j, 6))
		}) {
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			js = append(js, j)
		}
		slices.Sort(js)
		fmt.Fprintf(w, "j in %v\n", js)
	}

	printPath(w, "(a < b) && (0 <= a) && (b <= 2)")
	var pairs []dsl.Pair[int, int]
	for p, err := range dsl.FindAll2(b, func(a, b dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		return dsl.All(dsl.LT(a, b), dsl.GE(a, 0), dsl.LE(b, 2))
	}) {
		if err != nil {
			return err
		}
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(x, y dsl.Pair[int, int]) int {
		return cmp.Or(cmp.Compare(x.First, y.First), cmp.Compare(x.Second, y.Second))
	})
	for _, p := range pairs {
		fmt.Fprintf(w, "a = %d, b = %d\n", p.First, p.Second)
	}

	printPath(w, "first 3 of x >= 100")
	n := 0
	for x, err := range dsl.FindAll(b, func(x dsl.Val[int]) dsl.Tree[dsl.BoolSort] {
		return dsl.GE(x, 100)
	}) {
		if err != nil {
			return err
		}
		if x < 100 {
			return fmt.Errorf("model x = %d is below 100", x)
		}
		if n++; n == 3 {
			break
		}
	}
	fmt.Fprintf(w, "%d models\n", n)
	return nil
}
