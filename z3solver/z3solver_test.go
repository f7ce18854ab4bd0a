package z3solver

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slava0135/zdsl/solver"
)

func open(t *testing.T, opts ...Option) solver.Session {
	t.Helper()
	s, err := New(opts...).Open(solver.Options{Models: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func must(t *testing.T, h solver.Handle, err error) solver.Handle {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestSession_LinearSystem(t *testing.T) {
	s := open(t)
	x := must(t, s.Fresh("x", solver.KindInt))
	y := must(t, s.Fresh("y", solver.KindInt))
	ten := must(t, s.Const(solver.KindInt, int64(10)))
	two := must(t, s.Const(solver.KindInt, int64(2)))
	s.Assert(must(t, s.Apply(solver.OpEq, must(t, s.Apply(solver.OpAdd, x, y)), ten)))
	s.Assert(must(t, s.Apply(solver.OpEq, must(t, s.Apply(solver.OpSub, x, y)), two)))

	res, m, err := s.Check()
	if err != nil {
		t.Fatal(err)
	}
	if res != solver.Sat {
		t.Fatalf("got %s, want sat", res)
	}
	gx, _ := m.Int(x)
	gy, _ := m.Int(y)
	if gx != 6 || gy != 4 {
		t.Errorf("got (%d, %d), want (6, 4)", gx, gy)
	}
}

func TestSession_Enumerate(t *testing.T) {
	s := open(t)
	x := must(t, s.Fresh("x", solver.KindInt))
	zero := must(t, s.Const(solver.KindInt, int64(0)))
	three := must(t, s.Const(solver.KindInt, int64(3)))
	s.Assert(must(t, s.Apply(solver.OpGE, x, zero)))
	s.Assert(must(t, s.Apply(solver.OpLT, x, three)))

	var got []int64
	for m, err := range s.Models() {
		if err != nil {
			t.Fatal(err)
		}
		v, ok := m.Int(x)
		if !ok {
			t.Fatalf("model %s has no value for x", m)
		}
		got = append(got, v)
	}
	slices.Sort(got)
	if diff := cmp.Diff([]int64{0, 1, 2}, got); diff != "" {
		t.Errorf("models (-want +got):\n%s", diff)
	}
}

func TestSession_Sets(t *testing.T) {
	s := open(t, WithSetRange(-10, 10))
	set := must(t, s.Fresh("s", solver.KindIntSet))
	want := must(t, s.Const(solver.KindIntSet, []int64{-3, 4}))
	four := must(t, s.Const(solver.KindInt, int64(4)))
	base := must(t, s.Const(solver.KindIntSet, []int64{-3}))
	s.Assert(must(t, s.Apply(solver.OpEq, set, must(t, s.Apply(solver.OpInsert, base, four)))))
	s.Assert(must(t, s.Apply(solver.OpEq, set, want)))

	res, m, err := s.Check()
	if err != nil {
		t.Fatal(err)
	}
	if res != solver.Sat {
		t.Fatalf("got %s, want sat", res)
	}
	got, ok := m.IntSet(set)
	if !ok {
		t.Fatal("no value for s")
	}
	if diff := cmp.Diff([]int64{-3, 4}, got); diff != "" {
		t.Errorf("set (-want +got):\n%s", diff)
	}
}

func TestSession_Unsupported(t *testing.T) {
	s := open(t)
	a := must(t, s.Fresh("a", solver.KindIntSet))
	b := must(t, s.Fresh("b", solver.KindIntSet))
	for _, op := range []solver.Op{solver.OpUnion, solver.OpIntersect, solver.OpDifference, solver.OpSubset} {
		if _, err := s.Apply(op, a, b); !errors.Is(err, solver.ErrUnsupported) {
			t.Errorf("%s: got %v, want %v", op, err, solver.ErrUnsupported)
		}
	}
}

func TestSession_ReportedKinds(t *testing.T) {
	s := open(t)
	for _, k := range []solver.Kind{solver.KindBool, solver.KindInt, solver.KindIntSet} {
		h := must(t, s.Fresh("v", k))
		if h.Kind() != k {
			t.Errorf("fresh %s reports %s", k, h.Kind())
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fresh("v", solver.KindInt); !errors.Is(err, solver.ErrClosed) {
		t.Errorf("fresh after close: got %v, want %v", err, solver.ErrClosed)
	}
}
