package dsl

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"slava0135/zdsl/satsolver"
	"slava0135/zdsl/solver"
)

func TestFind_Int(t *testing.T) {
	b := newCounting()
	got, ok, err := Find(b, func(x Val[int]) Tree[BoolSort] {
		return And(GT(x, 3), LT(x, 5))
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 4 {
		t.Errorf("got %d, %t; want 4, true", got, ok)
	}
	if !b.balanced() || b.sessions != 1 || b.models != 1 {
		t.Errorf("sessions %d/%d, models %d/%d closed", b.sessionCloses, b.sessions, b.modelCloses, b.models)
	}
}

func TestChoose_Unsatisfiable(t *testing.T) {
	b := newCounting()
	_, err := Choose(b, func(x Val[int]) Tree[BoolSort] {
		return And(GT(x, 3), LT(x, 3))
	})
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Errorf("got %v, want %v", err, ErrUnsatisfiable)
	}
	if !b.balanced() || b.models != 0 {
		t.Errorf("sessions %d/%d, models %d/%d closed", b.sessionCloses, b.sessions, b.modelCloses, b.models)
	}
}

func TestFind_Contradiction(t *testing.T) {
	got, ok, err := Find(satsolver.New(), func(x Val[bool]) Tree[BoolSort] {
		return And(x, Not(x))
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("got %t, want no result", got)
	}
}

func TestFind2_LinearSystem(t *testing.T) {
	x, y, ok, err := Find2(satsolver.New(), func(x, y Val[int]) Tree[BoolSort] {
		return And(Eq(Add(x, y), 10), Eq(Sub(x, y), 2))
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || x != 6 || y != 4 {
		t.Errorf("got (%d, %d), %t; want (6, 4), true", x, y, ok)
	}
}

func TestFind3_Ordered(t *testing.T) {
	x, y, z, ok, err := Find3(satsolver.New(), func(x, y, z Val[int]) Tree[BoolSort] {
		return All(
			GT(x, 0),
			LT(x, y),
			LT(y, z),
			Eq(Add(Add(x, y), z), 6),
		)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || x != 1 || y != 2 || z != 3 {
		t.Errorf("got (%d, %d, %d), %t; want (1, 2, 3), true", x, y, z, ok)
	}
}

func TestFind_MixedSorts(t *testing.T) {
	s, x, flag, ok, err := Find3(satsolver.New(), func(s Val[IntSet], x Val[int], flag Val[bool]) Tree[BoolSort] {
		return All(
			Subset(s, SetOf(1, 3, 5)),
			Member(x, s),
			Not(Member(1, s)),
			Eq(Ite(flag, x, 0), 5),
		)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || x != 5 || !flag || !s.Contains(5) || s.Contains(1) {
		t.Errorf("got (%s, %d, %t), %t", s, x, flag, ok)
	}
}

func TestFind_Undecided(t *testing.T) {
	b := undecided{Backend: satsolver.New()}
	_, ok, err := Find(b, func(x Val[int]) Tree[BoolSort] {
		return GT(x, 0)
	})
	if err != nil || ok {
		t.Errorf("got %t, %v; want no result", ok, err)
	}
	if _, err := Choose(b, func(x Val[int]) Tree[BoolSort] { return GT(x, 0) }); !errors.Is(err, ErrUnsatisfiable) {
		t.Errorf("choose: got %v, want %v", err, ErrUnsatisfiable)
	}

	c := &counting{Backend: undecided{Backend: satsolver.New(), withModel: true}}
	_, ok, err = Find(c, func(x Val[int]) Tree[BoolSort] {
		return GT(x, 0)
	})
	if err != nil || ok {
		t.Errorf("with model: got %t, %v; want no result", ok, err)
	}
	if !c.balanced() || c.models != 1 {
		t.Errorf("with model: sessions %d/%d, models %d/%d closed", c.sessionCloses, c.sessions, c.modelCloses, c.models)
	}
}

type exploding int

func TestFindAll_ConvertPanic(t *testing.T) {
	Register[exploding](kindHandler[exploding]{
		prefix: "e",
		kind:   solver.KindInt,
		convert: func(solver.Model, solver.Handle) exploding {
			panic("convert")
		},
	})
	pred := func(x Val[exploding]) Tree[BoolSort] {
		return All()
	}
	tests := []struct {
		name string
		run  func(b solver.Backend)
	}{
		{"find", func(b solver.Backend) { Find(b, pred) }},
		{"findAll", func(b solver.Backend) {
			for range FindAll(b, pred) {
			}
		}},
	}
	for _, tt := range tests {
		b := newCounting()
		func() {
			defer func() {
				if r := recover(); r != "convert" {
					t.Errorf("%s: recovered %v, want convert", tt.name, r)
				}
			}()
			tt.run(b)
		}()
		if !b.balanced() || b.models != 1 {
			t.Errorf("%s: sessions %d/%d, models %d/%d closed", tt.name, b.sessionCloses, b.sessions, b.modelCloses, b.models)
		}
	}
}

func TestChoose_AgreesWithFind(t *testing.T) {
	preds := []func(Val[int]) Tree[BoolSort]{
		func(x Val[int]) Tree[BoolSort] { return Eq(Mul(x, 3), 12) },
		func(x Val[int]) Tree[BoolSort] { return Eq(Mod(x, 2), 3) },
		func(x Val[int]) Tree[BoolSort] { return And(Eq(Div(x, 4), -2), Eq(Mod(x, 4), 1)) },
	}
	for i, pred := range preds {
		found, ok, err := Find(satsolver.New(), pred)
		if err != nil {
			t.Fatal(err)
		}
		chosen, err := Choose(satsolver.New(), pred)
		switch {
		case ok && (err != nil || chosen != found):
			t.Errorf("predicate %d: find gave %d, choose gave %d, %v", i, found, chosen, err)
		case !ok && !errors.Is(err, ErrUnsatisfiable):
			t.Errorf("predicate %d: find gave nothing, choose gave %d, %v", i, chosen, err)
		}
	}
}

func TestFindAll_Range(t *testing.T) {
	b := newCounting()
	var got []int
	for x, err := range FindAll(b, func(x Val[int]) Tree[BoolSort] {
		return And(GE(x, 0), LT(x, 3))
	}) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, x)
	}
	slices.Sort(got)
	if diff := cmp.Diff([]int{0, 1, 2}, got); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if !b.balanced() || b.sessions != 1 || b.models != 3 {
		t.Errorf("sessions %d/%d, models %d/%d closed", b.sessionCloses, b.sessions, b.modelCloses, b.models)
	}
}

func TestFindAll_Break(t *testing.T) {
	b := newCounting()
	n := 0
	for _, err := range FindAll(b, func(x Val[int]) Tree[BoolSort] {
		return GE(x, 0)
	}) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("got %d values, want 2", n)
	}
	if !b.balanced() || b.sessions != 1 {
		t.Errorf("sessions %d/%d, models %d/%d closed", b.sessionCloses, b.sessions, b.modelCloses, b.models)
	}
}

func TestFindAll2_Distinct(t *testing.T) {
	seen := map[Pair[int, int]]bool{}
	for p, err := range FindAll2(satsolver.New(), func(x, y Val[int]) Tree[BoolSort] {
		return All(GE(x, 0), LT(x, 3), GE(y, 0), LT(y, 3), NE(x, y))
	}) {
		if err != nil {
			t.Fatal(err)
		}
		if seen[p] {
			t.Errorf("%v repeated", p)
		}
		seen[p] = true
	}
	if len(seen) != 6 {
		t.Errorf("got %d pairs, want 6", len(seen))
	}
}

func TestFindAll3_Bools(t *testing.T) {
	var got []Triple[bool, bool, bool]
	for tr, err := range FindAll3(satsolver.New(), func(a, b, c Val[bool]) Tree[BoolSort] {
		return And(Xor(a, b), Iff(b, c))
	}) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, tr)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want two triples", got)
	}
	for _, tr := range got {
		if tr.First == tr.Second || tr.Second != tr.Third {
			t.Errorf("%v does not satisfy the constraint", tr)
		}
	}
}

func TestFind_PredicateMismatch(t *testing.T) {
	b := newCounting()
	_, _, err := Find(b, func(x Val[int]) Tree[BoolSort] {
		return Not(x.Handle())
	})
	var mismatch *SortMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want a sort mismatch", err)
	}
	if mismatch.Want != solver.KindBool || mismatch.Got != solver.KindInt {
		t.Errorf("got want=%s got=%s", mismatch.Want, mismatch.Got)
	}
	if !b.balanced() || b.sessions != 1 {
		t.Errorf("sessions %d/%d closed", b.sessionCloses, b.sessions)
	}
}

func TestFind_PredicatePanic(t *testing.T) {
	b := newCounting()
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v, want boom", r)
		}
		if !b.balanced() || b.sessions != 1 {
			t.Errorf("sessions %d/%d closed", b.sessionCloses, b.sessions)
		}
	}()
	Find(b, func(x Val[int]) Tree[BoolSort] {
		panic("boom")
	})
}

func TestFind_EmptyPredicate(t *testing.T) {
	b := newCounting()
	_, _, err := Find(b, func(x Val[int]) Tree[BoolSort] {
		return Tree[BoolSort]{}
	})
	if !errors.Is(err, ErrEmptyTree) {
		t.Errorf("got %v, want %v", err, ErrEmptyTree)
	}
	if !b.balanced() {
		t.Errorf("sessions %d/%d closed", b.sessionCloses, b.sessions)
	}
}

func TestFind_NoHandler(t *testing.T) {
	b := newCounting()
	_, _, err := Find(b, func(x Val[string]) Tree[BoolSort] {
		return All()
	})
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("got %v, want %v", err, ErrNoHandler)
	}
	if b.sessions != 0 {
		t.Errorf("opened %d sessions", b.sessions)
	}
}

func TestSolve_Dynamic(t *testing.T) {
	kinds := []solver.Kind{solver.KindInt, solver.KindBool}
	pred := func(es []Expr) (Expr, error) {
		gt, err := Apply(solver.OpGT, es[0], Lit(2).Expr())
		if err != nil {
			return Expr{}, err
		}
		lt, err := Apply(solver.OpLT, es[0], Lit(4).Expr())
		if err != nil {
			return Expr{}, err
		}
		return Apply(solver.OpAnd, gt, lt, es[1])
	}
	got, ok, err := Solve(satsolver.New(), kinds, pred)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{3, true}, got); !ok || diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}

	n := 0
	for _, err := range SolveAll(satsolver.New(), kinds, pred) {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 1 {
		t.Errorf("got %d solutions, want 1", n)
	}
}

func TestSolve_NotBoolean(t *testing.T) {
	_, _, err := Solve(satsolver.New(), []solver.Kind{solver.KindInt}, func(es []Expr) (Expr, error) {
		return es[0], nil
	})
	var mismatch *SortMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("got %v, want a sort mismatch", err)
	}
}

func TestFind_Lifecycle(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	if _, _, err := Find(satsolver.New(), func(x Val[int]) Tree[BoolSort] {
		return Eq(x, 1)
	}); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
	}
	want := []string{"created", "unknowns built", "constraint asserted", "checked", "decoded", "released"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}
}
