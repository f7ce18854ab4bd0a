package dsl

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slava0135/zdsl/satsolver"
	"slava0135/zdsl/solver"
)

func TestConvert_Defaults(t *testing.T) {
	s := open(t)
	var m emptyModel
	if got := BoolHandler.Convert(m, fresh(t, s, solver.KindBool)); got {
		t.Errorf("bool: got %t, want false", got)
	}
	if got := IntHandler.Convert(m, fresh(t, s, solver.KindInt)); got != 0 {
		t.Errorf("int: got %d, want 0", got)
	}
	got := SetHandler.Convert(m, fresh(t, s, solver.KindIntSet))
	if got == nil || len(got) != 0 {
		t.Errorf("set: got %#v, want an empty set", got)
	}
}

func TestConstruct_UniqueNames(t *testing.T) {
	s := open(t)
	seen := map[string]bool{}
	for range 10 {
		v, err := IntHandler.Construct(s)
		if err != nil {
			t.Fatal(err)
		}
		name := v.String()
		if seen[name] {
			t.Errorf("name %s reused", name)
		}
		seen[name] = true
	}
}

func TestHandlerFor(t *testing.T) {
	if _, err := HandlerFor[bool](); err != nil {
		t.Errorf("bool: %v", err)
	}
	if _, err := HandlerFor[IntSet](); err != nil {
		t.Errorf("IntSet: %v", err)
	}
	if _, err := HandlerFor[float64](); !errors.Is(err, ErrNoHandler) {
		t.Errorf("float64: got %v, want %v", err, ErrNoHandler)
	}
}

type celsius int

// celsiusHandler keeps temperatures as integers and reads them back with
// the int handler.
type celsiusHandler struct{}

func (celsiusHandler) Construct(s *Session) (Val[celsius], error) {
	h, err := s.Native().Fresh("t", solver.KindInt)
	if err != nil {
		return Val[celsius]{}, err
	}
	tree, err := Native[IntSort](h)
	if err != nil {
		return Val[celsius]{}, err
	}
	return NewVal[celsius](tree), nil
}

func (celsiusHandler) Convert(m solver.Model, h solver.Handle) celsius {
	return celsius(IntHandler.Convert(m, h))
}

func TestRegister_Custom(t *testing.T) {
	Register[celsius](celsiusHandler{})
	got, err := Choose(satsolver.New(), func(v Val[celsius]) Tree[BoolSort] {
		tree, err := Cast[IntSort](v.Expr())
		if err != nil {
			t.Fatal(err)
		}
		return Eq(Mul(tree, 9), 45)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestIntSet(t *testing.T) {
	s := NewIntSet(3, 1, 3, -2)
	if diff := cmp.Diff(IntSet{-2, 1, 3}, s); diff != "" {
		t.Errorf("set (-want +got):\n%s", diff)
	}
	if !s.Contains(1) || s.Contains(2) {
		t.Errorf("membership of %s", s)
	}
	if got := s.String(); got != "{-2, 1, 3}" {
		t.Errorf("got %s", got)
	}
	if NewIntSet() == nil {
		t.Error("empty set is nil")
	}
}
