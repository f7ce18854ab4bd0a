package dsl

import (
	"iter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"slava0135/zdsl/solver"
)

// problem is a solving request with its host types erased: one slot per
// unknown and a predicate over the unknowns' nodes.
type problem struct {
	slots []slot
	pred  func(vals []*node) (Tree[BoolSort], error)
}

func newProblem(pred func([]*node) (Tree[BoolSort], error), slots ...func() (slot, error)) (problem, error) {
	p := problem{pred: pred}
	for _, f := range slots {
		sl, err := f()
		if err != nil {
			return problem{}, err
		}
		p.slots = append(p.slots, sl)
	}
	return p, nil
}

// setup builds the unknowns, runs the predicate and asserts its result.
// The returned handles are the unknowns in slot order.
func (p problem) setup(s *Session) ([]solver.Handle, error) {
	vals := make([]*node, len(p.slots))
	hs := make([]solver.Handle, len(p.slots))
	for i, sl := range p.slots {
		n, err := sl.construct(s)
		if err != nil {
			return nil, err
		}
		if hs[i], err = s.materialize(n); err != nil {
			return nil, err
		}
		vals[i] = n
	}
	s.advance(stateUnknownsBuilt)
	t, err := callPredicate(p.pred, vals)
	if err != nil {
		return nil, err
	}
	return hs, s.Assert(t)
}

func (p problem) decode(m solver.Model, hs []solver.Handle) []any {
	out := make([]any, len(p.slots))
	for i, sl := range p.slots {
		out[i] = sl.convert(m, hs[i])
	}
	return out
}

// decodeAndClose decodes m and closes it, also when a handler panics.
func (p problem) decodeAndClose(m solver.Model, hs []solver.Handle) (vals []any, err error) {
	defer func() {
		err = multierr.Append(err, m.Close())
	}()
	return p.decode(m, hs), nil
}

func (p problem) find(b solver.Backend) (vals []any, ok bool, err error) {
	s, err := Open(b, solver.Options{Models: true})
	if err != nil {
		return nil, false, err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	hs, err := p.setup(s)
	if err != nil {
		return nil, false, err
	}
	res, m, err := s.native.Check()
	if m != nil {
		defer func() {
			err = multierr.Append(err, m.Close())
		}()
	}
	if err != nil {
		return nil, false, err
	}
	s.advance(stateChecked, zap.Stringer("result", res))
	if res != solver.Sat || m == nil {
		return nil, false, nil
	}
	vals = p.decode(m, hs)
	s.advance(stateDecoded)
	return vals, true, nil
}

func (p problem) findAll(b solver.Backend) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		stopped, err := p.enumerate(b, yield)
		if err == nil {
			return
		}
		if stopped {
			log().Warn("release after enumeration stopped", zap.Error(err))
			return
		}
		yield(nil, err)
	}
}

// enumerate yields every model of p. stopped reports whether the consumer
// asked to stop, after which yield must not be called again.
func (p problem) enumerate(b solver.Backend, yield func([]any, error) bool) (stopped bool, err error) {
	s, err := Open(b, solver.Options{Models: true})
	if err != nil {
		return false, err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	hs, err := p.setup(s)
	if err != nil {
		return false, err
	}
	for m, err := range s.native.Models() {
		if err != nil {
			return false, err
		}
		s.advance(stateChecked, zap.Stringer("result", solver.Sat))
		vals, err := p.decodeAndClose(m, hs)
		if err != nil {
			return false, err
		}
		s.advance(stateDecoded)
		if !yield(vals, nil) {
			return true, nil
		}
	}
	return false, nil
}

// callPredicate turns a sort mismatch raised by an operator inside pred
// into an error. Other panics keep unwinding.
func callPredicate(pred func([]*node) (Tree[BoolSort], error), vals []*node) (t Tree[BoolSort], err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*SortMismatchError)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	return pred(vals)
}

// Find looks for a value of T satisfying pred. ok is false when the
// constraint is unsatisfiable or the solver gives up.
func Find[T any](b solver.Backend, pred func(Val[T]) Tree[BoolSort]) (v T, ok bool, err error) {
	p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
		return pred(Val[T]{ns[0]}), nil
	}, slotFor[T])
	if err != nil {
		return v, false, err
	}
	vals, ok, err := p.find(b)
	if !ok || err != nil {
		return v, false, err
	}
	return vals[0].(T), true, nil
}

func Find2[A, B any](b solver.Backend, pred func(Val[A], Val[B]) Tree[BoolSort]) (x A, y B, ok bool, err error) {
	p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
		return pred(Val[A]{ns[0]}, Val[B]{ns[1]}), nil
	}, slotFor[A], slotFor[B])
	if err != nil {
		return x, y, false, err
	}
	vals, ok, err := p.find(b)
	if !ok || err != nil {
		return x, y, false, err
	}
	return vals[0].(A), vals[1].(B), true, nil
}

func Find3[A, B, C any](b solver.Backend, pred func(Val[A], Val[B], Val[C]) Tree[BoolSort]) (x A, y B, z C, ok bool, err error) {
	p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
		return pred(Val[A]{ns[0]}, Val[B]{ns[1]}, Val[C]{ns[2]}), nil
	}, slotFor[A], slotFor[B], slotFor[C])
	if err != nil {
		return x, y, z, false, err
	}
	vals, ok, err := p.find(b)
	if !ok || err != nil {
		return x, y, z, false, err
	}
	return vals[0].(A), vals[1].(B), vals[2].(C), true, nil
}

// Choose is Find that treats absence as ErrUnsatisfiable.
func Choose[T any](b solver.Backend, pred func(Val[T]) Tree[BoolSort]) (T, error) {
	v, ok, err := Find(b, pred)
	if err == nil && !ok {
		err = ErrUnsatisfiable
	}
	return v, err
}

func Choose2[A, B any](b solver.Backend, pred func(Val[A], Val[B]) Tree[BoolSort]) (A, B, error) {
	x, y, ok, err := Find2(b, pred)
	if err == nil && !ok {
		err = ErrUnsatisfiable
	}
	return x, y, err
}

func Choose3[A, B, C any](b solver.Backend, pred func(Val[A], Val[B], Val[C]) Tree[BoolSort]) (A, B, C, error) {
	x, y, z, ok, err := Find3(b, pred)
	if err == nil && !ok {
		err = ErrUnsatisfiable
	}
	return x, y, z, err
}

type Pair[A, B any] struct {
	First  A
	Second B
}

type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// FindAll enumerates the values of T satisfying pred. Every iteration of
// the sequence opens its own session, and leaving the loop early releases it.
func FindAll[T any](b solver.Backend, pred func(Val[T]) Tree[BoolSort]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
			return pred(Val[T]{ns[0]}), nil
		}, slotFor[T])
		if err != nil {
			yield(zero, err)
			return
		}
		for vals, err := range p.findAll(b) {
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(vals[0].(T), nil) {
				return
			}
		}
	}
}

func FindAll2[A, B any](b solver.Backend, pred func(Val[A], Val[B]) Tree[BoolSort]) iter.Seq2[Pair[A, B], error] {
	return func(yield func(Pair[A, B], error) bool) {
		p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
			return pred(Val[A]{ns[0]}, Val[B]{ns[1]}), nil
		}, slotFor[A], slotFor[B])
		if err != nil {
			yield(Pair[A, B]{}, err)
			return
		}
		for vals, err := range p.findAll(b) {
			if err != nil {
				yield(Pair[A, B]{}, err)
				return
			}
			if !yield(Pair[A, B]{vals[0].(A), vals[1].(B)}, nil) {
				return
			}
		}
	}
}

func FindAll3[A, B, C any](b solver.Backend, pred func(Val[A], Val[B], Val[C]) Tree[BoolSort]) iter.Seq2[Triple[A, B, C], error] {
	return func(yield func(Triple[A, B, C], error) bool) {
		p, err := newProblem(func(ns []*node) (Tree[BoolSort], error) {
			return pred(Val[A]{ns[0]}, Val[B]{ns[1]}, Val[C]{ns[2]}), nil
		}, slotFor[A], slotFor[B], slotFor[C])
		if err != nil {
			yield(Triple[A, B, C]{}, err)
			return
		}
		for vals, err := range p.findAll(b) {
			if err != nil {
				yield(Triple[A, B, C]{}, err)
				return
			}
			if !yield(Triple[A, B, C]{vals[0].(A), vals[1].(B), vals[2].(C)}, nil) {
				return
			}
		}
	}
}

func dynamicProblem(kinds []solver.Kind, pred func([]Expr) (Expr, error)) (problem, error) {
	slots := make([]func() (slot, error), len(kinds))
	for i, k := range kinds {
		slots[i] = func() (slot, error) { return slotForKind(k) }
	}
	return newProblem(func(ns []*node) (Tree[BoolSort], error) {
		es := make([]Expr, len(ns))
		for i, n := range ns {
			es[i] = Expr{n}
		}
		e, err := pred(es)
		if err != nil {
			return Tree[BoolSort]{}, err
		}
		return Cast[BoolSort](e)
	}, slots...)
}

// Solve is Find for a number of unknowns only known at run time. The
// decoded values are bool, int or IntSet according to kinds.
func Solve(b solver.Backend, kinds []solver.Kind, pred func([]Expr) (Expr, error)) ([]any, bool, error) {
	p, err := dynamicProblem(kinds, pred)
	if err != nil {
		return nil, false, err
	}
	return p.find(b)
}

func SolveAll(b solver.Backend, kinds []solver.Kind, pred func([]Expr) (Expr, error)) iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		p, err := dynamicProblem(kinds, pred)
		if err != nil {
			yield(nil, err)
			return
		}
		for vals, err := range p.findAll(b) {
			if !yield(vals, err) || err != nil {
				return
			}
		}
	}
}
