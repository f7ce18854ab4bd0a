// Package z3solver is the solver backend built on Z3.
//
// Sets of integers are Int -> Bool arrays. The binding has no array map
// operation, so union, intersection, difference and subset are not
// available; membership, insertion and equality are. Set values are read
// back by probing membership over a fixed range.
package z3solver

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aclements/go-z3/z3"

	"slava0135/zdsl/solver"
)

const (
	defaultSetLo = -128
	defaultSetHi = 127
)

type Backend struct {
	setLo, setHi int64
}

type Option func(*Backend)

// WithSetRange sets the integers probed when a set is read from a model.
// Members outside [lo, hi] are not reported.
func WithSetRange(lo, hi int64) Option {
	return func(b *Backend) {
		b.setLo, b.setHi = lo, hi
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{setLo: defaultSetLo, setHi: defaultSetHi}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string {
	return "z3"
}

func (b *Backend) Open(opts solver.Options) (solver.Session, error) {
	if b.setLo > b.setHi {
		return nil, fmt.Errorf("empty set probe range [%d, %d]", b.setLo, b.setHi)
	}
	ctx := z3.NewContext(nil)
	return &session{
		id:     solver.NextID(),
		opts:   opts,
		setLo:  b.setLo,
		setHi:  b.setHi,
		ctx:    ctx,
		solver: z3.NewSolver(ctx),
	}, nil
}

type session struct {
	id           uint64
	opts         solver.Options
	setLo, setHi int64

	ctx    *z3.Context
	solver *z3.Solver

	unknowns []solver.Handle
	next     int
	gen      int
	closed   bool
}

func (s *session) ID() uint64 {
	return s.id
}

func (s *session) sort(k solver.Kind) (z3.Sort, error) {
	switch k {
	case solver.KindBool:
		return s.ctx.BoolSort(), nil
	case solver.KindInt:
		return s.ctx.IntSort(), nil
	case solver.KindIntSet:
		return s.ctx.ArraySort(s.ctx.IntSort(), s.ctx.BoolSort()), nil
	}
	var zero z3.Sort
	return zero, fmt.Errorf("sort of %s: %w", k, solver.ErrKind)
}

// kindOf reads the kind of a Z3 value from its sort.
func kindOf(v z3.Value) solver.Kind {
	switch v.Sort().Kind() {
	case z3.KindBool:
		return solver.KindBool
	case z3.KindInt:
		return solver.KindInt
	case z3.KindArray:
		return solver.KindIntSet
	default:
		return solver.KindInvalid
	}
}

func (s *session) wrap(v z3.Value) solver.Handle {
	return solver.NewHandle(s.id, kindOf(v), v)
}

func (s *session) Const(k solver.Kind, value any) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	switch v := value.(type) {
	case bool:
		if k == solver.KindBool {
			return s.wrap(s.ctx.FromBool(v)), nil
		}
	case int64:
		if k == solver.KindInt {
			return s.wrap(s.ctx.FromInt(v, s.ctx.IntSort())), nil
		}
	case []int64:
		if k == solver.KindIntSet {
			arr := s.ctx.ConstArray(s.ctx.IntSort(), s.ctx.FromBool(false))
			for _, x := range v {
				arr = arr.Store(s.ctx.FromInt(x, s.ctx.IntSort()), s.ctx.FromBool(true))
			}
			return s.wrap(arr), nil
		}
	}
	return solver.Handle{}, fmt.Errorf("constant %v (%T) of kind %s: %w", value, value, k, solver.ErrKind)
}

func (s *session) Fresh(prefix string, k solver.Kind) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	sort, err := s.sort(k)
	if err != nil {
		return solver.Handle{}, err
	}
	name := fmt.Sprintf("%s!%d", prefix, s.next)
	s.next++
	h := s.wrap(s.ctx.Const(name, sort))
	s.unknowns = append(s.unknowns, h)
	return h, nil
}

func (s *session) Apply(op solver.Op, args ...solver.Handle) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	if _, err := solver.CheckArgs(s.id, op, args); err != nil {
		return solver.Handle{}, err
	}
	v, err := s.encode(op, args)
	if err != nil {
		return solver.Handle{}, err
	}
	return s.wrap(v), nil
}

func bools(args []solver.Handle) []z3.Bool {
	out := make([]z3.Bool, len(args))
	for i, a := range args {
		out[i] = a.Term().(z3.Bool)
	}
	return out
}

func ints(args []solver.Handle) []z3.Int {
	out := make([]z3.Int, len(args))
	for i, a := range args {
		out[i] = a.Term().(z3.Int)
	}
	return out
}

func (s *session) encode(op solver.Op, args []solver.Handle) (z3.Value, error) {
	switch op {
	case solver.OpNot:
		return bools(args)[0].Not(), nil
	case solver.OpAnd:
		bs := bools(args)
		return bs[0].And(bs[1:]...), nil
	case solver.OpOr:
		bs := bools(args)
		return bs[0].Or(bs[1:]...), nil
	case solver.OpXor:
		bs := bools(args)
		return bs[0].Xor(bs[1]), nil
	case solver.OpImplies:
		bs := bools(args)
		return bs[0].Implies(bs[1]), nil
	case solver.OpIff:
		bs := bools(args)
		return bs[0].Iff(bs[1]), nil
	case solver.OpIte:
		c := args[0].Term().(z3.Bool)
		return c.IfThenElse(args[1].Term().(z3.Value), args[2].Term().(z3.Value)), nil
	case solver.OpEq:
		switch a := args[0].Term().(type) {
		case z3.Bool:
			return a.Eq(args[1].Term().(z3.Bool)), nil
		case z3.Int:
			return a.Eq(args[1].Term().(z3.Int)), nil
		case z3.Array:
			return a.Eq(args[1].Term().(z3.Array)), nil
		}
	case solver.OpDistinct:
		vs := make([]z3.Value, len(args))
		for i, a := range args {
			vs[i] = a.Term().(z3.Value)
		}
		return s.ctx.Distinct(vs...), nil
	case solver.OpAdd:
		is := ints(args)
		return is[0].Add(is[1:]...), nil
	case solver.OpSub:
		is := ints(args)
		return is[0].Sub(is[1]), nil
	case solver.OpMul:
		is := ints(args)
		return is[0].Mul(is[1:]...), nil
	case solver.OpDiv:
		is := ints(args)
		return is[0].Div(is[1]), nil
	case solver.OpMod:
		is := ints(args)
		return is[0].Mod(is[1]), nil
	case solver.OpNeg:
		return ints(args)[0].Neg(), nil
	case solver.OpLT:
		is := ints(args)
		return is[0].LT(is[1]), nil
	case solver.OpLE:
		is := ints(args)
		return is[0].LE(is[1]), nil
	case solver.OpGT:
		is := ints(args)
		return is[0].GT(is[1]), nil
	case solver.OpGE:
		is := ints(args)
		return is[0].GE(is[1]), nil
	case solver.OpMember:
		set := args[1].Term().(z3.Array)
		return set.Select(args[0].Term().(z3.Int)).(z3.Bool), nil
	case solver.OpInsert:
		set := args[0].Term().(z3.Array)
		return set.Store(args[1].Term().(z3.Int), s.ctx.FromBool(true)), nil
	}
	return nil, fmt.Errorf("z3 %s: %w", op, solver.ErrUnsupported)
}

func (s *session) Assert(h solver.Handle) error {
	if s.closed {
		return solver.ErrClosed
	}
	if h.Owner() != s.id {
		return fmt.Errorf("assert %s: %w", h, solver.ErrForeignHandle)
	}
	b, ok := h.Term().(z3.Bool)
	if !ok {
		return fmt.Errorf("assert %s of kind %s: %w", h, h.Kind(), solver.ErrKind)
	}
	s.solver.Assert(b)
	return nil
}

func (s *session) check() (solver.Result, error) {
	s.gen++
	sat, err := s.solver.Check()
	if err != nil {
		var unknown *z3.ErrSatUnknown
		if errors.As(err, &unknown) {
			return solver.Unknown, nil
		}
		return solver.Unknown, err
	}
	if sat {
		return solver.Sat, nil
	}
	return solver.Unsat, nil
}

func (s *session) Check() (solver.Result, solver.Model, error) {
	if s.closed {
		return solver.Unknown, nil, solver.ErrClosed
	}
	res, err := s.check()
	if err != nil || res != solver.Sat || !s.opts.Models {
		return res, nil, err
	}
	return res, s.model(), nil
}

func (s *session) Models() iter.Seq2[solver.Model, error] {
	return func(yield func(solver.Model, error) bool) {
		if s.closed {
			yield(nil, solver.ErrClosed)
			return
		}
		for !s.closed {
			res, err := s.check()
			if err != nil {
				yield(nil, err)
				return
			}
			if res != solver.Sat {
				return
			}
			m := s.model()
			block := s.blocking(m.m)
			if !yield(m, nil) || block == nil {
				return
			}
			s.solver.Assert(*block)
		}
	}
}

// blocking is the clause that excludes the values m gives to the
// session's unknowns, or nil when there are none.
func (s *session) blocking(m *z3.Model) *z3.Bool {
	var diffs []z3.Bool
	for _, h := range s.unknowns {
		switch u := h.Term().(type) {
		case z3.Bool:
			diffs = append(diffs, u.NE(m.Eval(u, true).(z3.Bool)))
		case z3.Int:
			diffs = append(diffs, u.NE(m.Eval(u, true).(z3.Int)))
		case z3.Array:
			diffs = append(diffs, u.NE(m.Eval(u, true).(z3.Array)))
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	b := diffs[0].Or(diffs[1:]...)
	return &b
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.solver.Reset()
	s.solver = nil
	s.ctx = nil
	s.unknowns = nil
	return nil
}

func (s *session) model() *model {
	return &model{s: s, m: s.solver.Model(), gen: s.gen}
}

type model struct {
	s      *session
	m      *z3.Model
	gen    int
	closed bool
}

func (m *model) eval(h solver.Handle, k solver.Kind) (z3.Value, bool) {
	if m.closed || m.s.closed || m.gen != m.s.gen {
		return nil, false
	}
	if h.Owner() != m.s.id || h.Kind() != k {
		return nil, false
	}
	v, ok := h.Term().(z3.Value)
	if !ok {
		return nil, false
	}
	return m.m.Eval(v, true), true
}

func (m *model) Bool(h solver.Handle) (bool, bool) {
	v, ok := m.eval(h, solver.KindBool)
	if !ok {
		return false, false
	}
	return v.(z3.Bool).AsBool()
}

func (m *model) Int(h solver.Handle) (int64, bool) {
	v, ok := m.eval(h, solver.KindInt)
	if !ok {
		return 0, false
	}
	x, isLit, ok := v.(z3.Int).AsInt64()
	return x, isLit && ok
}

func (m *model) IntSet(h solver.Handle) ([]int64, bool) {
	v, ok := m.eval(h, solver.KindIntSet)
	if !ok {
		return nil, false
	}
	arr := v.(z3.Array)
	ctx := m.s.ctx
	out := []int64{}
	for x := m.s.setLo; x <= m.s.setHi; x++ {
		in := m.m.Eval(arr.Select(ctx.FromInt(x, ctx.IntSort())), true).(z3.Bool)
		if b, isLit := in.AsBool(); isLit && b {
			out = append(out, x)
		}
	}
	return out, true
}

func (m *model) String() string {
	if m.closed || m.m == nil {
		return "<closed>"
	}
	return strings.TrimSpace(m.m.String())
}

func (m *model) Close() error {
	m.closed = true
	return nil
}
