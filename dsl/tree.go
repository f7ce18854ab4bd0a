package dsl

import (
	"fmt"
	"strings"

	"slava0135/zdsl/solver"
)

type form int

const (
	formLiteral form = iota + 1
	formNative
	formApply
)

// node is shared by every tree built on top of it and never mutated after
// construction.
type node struct {
	form form
	// kind is KindInvalid for a literal whose sort is still pending.
	kind solver.Kind

	lit  any // bool, int64 or IntSet
	h    solver.Handle
	op   solver.Op
	args []*node
}

// Tree is an immutable symbolic term of sort S. The zero Tree is empty and
// fails to materialize.
type Tree[S Sort] struct {
	n *node
}

// Literal is the set of host values usable as constants.
type Literal interface {
	bool | int | int64 | IntSet
}

// Lit builds a constant whose sort is pinned by the first operator that
// uses it.
func Lit[T Literal](v T) Tree[BottomSort] {
	return Tree[BottomSort]{literal(v)}
}

// Native wraps a handle produced by a session. Its reported sort must be S;
// BottomSort accepts any handle.
func Native[S Sort](h solver.Handle) (Tree[S], error) {
	var s S
	if s.Kind() != solver.KindInvalid && h.Kind() != s.Kind() {
		return Tree[S]{}, mismatch(s.Kind(), h)
	}
	return Tree[S]{native(h)}, nil
}

func literal(v any) *node {
	switch v := v.(type) {
	case int:
		return &node{form: formLiteral, lit: int64(v)}
	case IntSet:
		return &node{form: formLiteral, lit: NewIntSet(v...)}
	default:
		return &node{form: formLiteral, lit: v}
	}
}

func native(h solver.Handle) *node {
	return &node{form: formNative, kind: h.Kind(), h: h}
}

// pin fixes the sort of a pending literal. Other nodes are returned as is.
func pin(n *node, k solver.Kind) *node {
	if n == nil || n.form != formLiteral || n.kind != solver.KindInvalid || k == solver.KindInvalid {
		return n
	}
	return &node{form: formLiteral, kind: k, lit: n.lit}
}

// pinChecked is pin that refuses a pending literal whose value does not
// belong to k.
func pinChecked(n *node, k solver.Kind) (*node, error) {
	if n != nil && n.form == formLiteral && n.kind == solver.KindInvalid && k != solver.KindInvalid {
		if nk := naturalKind(n.lit); nk != k {
			return nil, &SortMismatchError{Want: k, Got: nk, Value: fmt.Sprint(n.lit)}
		}
	}
	return pin(n, k), nil
}

func naturalKind(lit any) solver.Kind {
	switch lit.(type) {
	case bool:
		return solver.KindBool
	case int64:
		return solver.KindInt
	case IntSet:
		return solver.KindIntSet
	default:
		return solver.KindInvalid
	}
}

func (n *node) element() *sortElement {
	if n == nil {
		return &bottomElement
	}
	return elementOf(n.kind)
}

func (t Tree[S]) IsZero() bool {
	return t.n == nil
}

// Kind is the dynamic sort of the term; KindInvalid for a pending literal.
func (t Tree[S]) Kind() solver.Kind {
	if t.n == nil {
		return solver.KindInvalid
	}
	return t.n.kind
}

// Materialize lowers the tree into s. Repeated calls with the same session
// return the same handle.
func (t Tree[S]) Materialize(s *Session) (solver.Handle, error) {
	return s.materialize(t.n)
}

func (t Tree[S]) Expr() Expr {
	return Expr{t.n}
}

func (t Tree[S]) String() string {
	return t.n.String()
}

// Expr is a tree whose static sort has been erased. It is what dynamically
// typed front ends (see package lang) work with.
type Expr struct {
	n *node
}

func Erase[S Sort](t Tree[S]) Expr {
	return Expr{t.n}
}

func (e Expr) IsZero() bool {
	return e.n == nil
}

func (e Expr) Kind() solver.Kind {
	if e.n == nil {
		return solver.KindInvalid
	}
	return e.n.kind
}

func (e Expr) String() string {
	return e.n.String()
}

// Cast recovers a static sort. Pending literals go to any sort, everything
// else must already have sort S.
func Cast[S Sort](e Expr) (Tree[S], error) {
	if e.n == nil {
		return Tree[S]{}, ErrEmptyTree
	}
	var s S
	if !e.n.element().isSubsortOf(s.element()) {
		return Tree[S]{}, &SortMismatchError{Want: s.Kind(), Got: e.n.kind, Value: e.String()}
	}
	n, err := pinChecked(e.n, s.Kind())
	if err != nil {
		return Tree[S]{}, err
	}
	return Tree[S]{n}, nil
}

func (n *node) String() string {
	if n == nil {
		return "<empty>"
	}
	switch n.form {
	case formLiteral:
		return fmt.Sprint(n.lit)
	case formNative:
		return n.h.String()
	case formApply:
		var sb strings.Builder
		sb.WriteString("(")
		sb.WriteString(n.op.String())
		for _, a := range n.args {
			sb.WriteString(" ")
			sb.WriteString(a.String())
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "<invalid>"
	}
}

// Apply builds an operator node from dynamically sorted operands, checking
// their sorts. Pending literals take their natural sort.
func Apply(op solver.Op, args ...Expr) (Expr, error) {
	nodes := make([]*node, len(args))
	kinds := make([]solver.Kind, len(args))
	for i, a := range args {
		if a.n == nil {
			return Expr{}, fmt.Errorf("%s argument %d: %w", op, i, ErrEmptyTree)
		}
		n := a.n
		if n.form == formLiteral {
			n = pin(n, naturalKind(n.lit))
		}
		nodes[i] = n
		kinds[i] = n.kind
	}
	k, err := solver.ResultKind(op, kinds...)
	if err != nil {
		return Expr{}, err
	}
	return Expr{&node{form: formApply, kind: k, op: op, args: nodes}}, nil
}

func apply[S Sort](op solver.Op, args ...*node) Tree[S] {
	var s S
	return Tree[S]{&node{form: formApply, kind: s.Kind(), op: op, args: args}}
}
