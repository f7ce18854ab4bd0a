package dsl

import (
	"fmt"

	"slava0135/zdsl/solver"
)

// BoolArg is everything that can stand for a boolean term.
type BoolArg interface {
	bool | Tree[BoolSort] | Tree[BottomSort] | BoolOperand | solver.Handle | Val[bool]
}

// IntArg is everything that can stand for an integer term.
type IntArg interface {
	int | int64 | Tree[IntSort] | Tree[BottomSort] | IntOperand | solver.Handle | Val[int]
}

// SetArg is everything that can stand for a set-of-integers term.
type SetArg interface {
	IntSet | Tree[SetSort] | Tree[BottomSort] | SetOperand | solver.Handle | Val[IntSet]
}

type BoolOperand struct {
	t Tree[BoolSort]
}

type IntOperand struct {
	t Tree[IntSort]
}

type SetOperand struct {
	t Tree[SetSort]
}

func (o BoolOperand) Tree() Tree[BoolSort] { return o.t }
func (o IntOperand) Tree() Tree[IntSort]   { return o.t }
func (o SetOperand) Tree() Tree[SetSort]   { return o.t }

// ToBool coerces a into a boolean operand. Native handles are checked
// against their reported sort right away.
func ToBool[A BoolArg](a A) (BoolOperand, error) {
	t, err := coerce[BoolSort](a, true)
	return BoolOperand{t}, err
}

func ToInt[A IntArg](a A) (IntOperand, error) {
	t, err := coerce[IntSort](a, true)
	return IntOperand{t}, err
}

// ToSet coerces a into a set operand. Unlike ToBool and ToInt it does not
// check the sort of a native handle; a wrong handle is only reported by the
// backend when the term is materialized.
func ToSet[A SetArg](a A) (SetOperand, error) {
	t, err := coerce[SetSort](a, false)
	return SetOperand{t}, err
}

func coerce[S Sort](a any, checkNative bool) (Tree[S], error) {
	var s S
	switch v := a.(type) {
	case bool, int, int64, IntSet:
		return Tree[S]{pin(literal(v), s.Kind())}, nil
	case Tree[S]:
		return v, nil
	case Tree[BottomSort]:
		n, err := pinChecked(v.n, s.Kind())
		if err != nil {
			return Tree[S]{}, err
		}
		return Tree[S]{n}, nil
	case BoolOperand:
		return any(v.t).(Tree[S]), nil
	case IntOperand:
		return any(v.t).(Tree[S]), nil
	case SetOperand:
		return any(v.t).(Tree[S]), nil
	case solver.Handle:
		if checkNative && v.Kind() != s.Kind() {
			return Tree[S]{}, mismatch(s.Kind(), v)
		}
		return Tree[S]{native(v)}, nil
	case Val[bool]:
		return Tree[S]{v.n}, nil
	case Val[int]:
		return Tree[S]{v.n}, nil
	case Val[IntSet]:
		return Tree[S]{v.n}, nil
	default:
		panic(fmt.Sprintf("unexpected operand %T", a))
	}
}

func mustBool[A BoolArg](a A) *node {
	o, err := ToBool(a)
	if err != nil {
		panic(err)
	}
	return o.t.n
}

func mustInt[A IntArg](a A) *node {
	o, err := ToInt(a)
	if err != nil {
		panic(err)
	}
	return o.t.n
}

func mustSet[A SetArg](a A) *node {
	o, err := ToSet(a)
	if err != nil {
		panic(err)
	}
	return o.t.n
}
