package dsl

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"slava0135/zdsl/solver"
)

// IntSet is a finite set of integers, kept sorted and without duplicates.
type IntSet []int

func NewIntSet(xs ...int) IntSet {
	s := make([]int, len(xs))
	copy(s, xs)
	slices.Sort(s)
	return IntSet(slices.Compact(s))
}

func (s IntSet) Contains(x int) bool {
	_, ok := slices.BinarySearch(s, x)
	return ok
}

func (s IntSet) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Val is a fresh unknown of host type T, handed to predicates by the
// combinators.
type Val[T any] struct {
	n *node
}

// NewVal wraps t as an unknown of host type T. Handlers registered from
// outside this package build their values with it.
func NewVal[T any, S Sort](t Tree[S]) Val[T] {
	return Val[T]{t.n}
}

func (v Val[T]) Handle() solver.Handle {
	if v.n == nil {
		return solver.Handle{}
	}
	return v.n.h
}

func (v Val[T]) Expr() Expr {
	return Expr{v.n}
}

func (v Val[T]) String() string {
	return v.n.String()
}

// Handler knows how to make unknowns of host type T and how to read them
// back from a model.
type Handler[T any] interface {
	// Construct makes a fresh, unconstrained unknown in s.
	Construct(s *Session) (Val[T], error)
	// Convert reads the value of h from m. It never fails: a value the
	// model does not assign decodes to the handler's default.
	Convert(m solver.Model, h solver.Handle) T
}

type kindHandler[T any] struct {
	prefix  string
	kind    solver.Kind
	convert func(m solver.Model, h solver.Handle) T
}

func (kh kindHandler[T]) Construct(s *Session) (Val[T], error) {
	n, err := s.fresh(kh.prefix, kh.kind)
	if err != nil {
		return Val[T]{}, err
	}
	return Val[T]{n}, nil
}

func (kh kindHandler[T]) Convert(m solver.Model, h solver.Handle) T {
	return kh.convert(m, h)
}

var (
	BoolHandler Handler[bool] = kindHandler[bool]{
		prefix: "b",
		kind:   solver.KindBool,
		convert: func(m solver.Model, h solver.Handle) bool {
			v, ok := m.Bool(h)
			return ok && v
		},
	}
	IntHandler Handler[int] = kindHandler[int]{
		prefix: "x",
		kind:   solver.KindInt,
		convert: func(m solver.Model, h solver.Handle) int {
			v, ok := m.Int(h)
			if !ok || int64(int(v)) != v {
				return 0
			}
			return int(v)
		},
	}
	SetHandler Handler[IntSet] = kindHandler[IntSet]{
		prefix: "s",
		kind:   solver.KindIntSet,
		convert: func(m solver.Model, h solver.Handle) IntSet {
			vs, ok := m.IntSet(h)
			if !ok {
				return IntSet{}
			}
			xs := make([]int, 0, len(vs))
			for _, v := range vs {
				if int64(int(v)) == v {
					xs = append(xs, int(v))
				}
			}
			return NewIntSet(xs...)
		},
	}
)

var handlers sync.Map // reflect.Type -> Handler[T]

func init() {
	Register(BoolHandler)
	Register(IntHandler)
	Register(SetHandler)
}

// Register makes h the handler the combinators use for T.
func Register[T any](h Handler[T]) {
	handlers.Store(reflect.TypeFor[T](), h)
}

func HandlerFor[T any]() (Handler[T], error) {
	t := reflect.TypeFor[T]()
	v, ok := handlers.Load(t)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoHandler, t)
	}
	return v.(Handler[T]), nil
}

// slot is a handler with its host type erased, one per unknown of a
// problem.
type slot struct {
	construct func(s *Session) (*node, error)
	convert   func(m solver.Model, h solver.Handle) any
}

func slotFor[T any]() (slot, error) {
	h, err := HandlerFor[T]()
	if err != nil {
		return slot{}, err
	}
	return slot{
		construct: func(s *Session) (*node, error) {
			v, err := h.Construct(s)
			return v.n, err
		},
		convert: func(m solver.Model, hd solver.Handle) any {
			return h.Convert(m, hd)
		},
	}, nil
}

func slotForKind(k solver.Kind) (slot, error) {
	switch k {
	case solver.KindBool:
		return slotFor[bool]()
	case solver.KindInt:
		return slotFor[int]()
	case solver.KindIntSet:
		return slotFor[IntSet]()
	default:
		return slot{}, fmt.Errorf("%w for kind %s", ErrNoHandler, k)
	}
}
