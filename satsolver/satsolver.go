// Package satsolver is a solver backend that needs no native library.
// Integers are fixed-width two's complement bit vectors and sets of
// integers are membership vectors over the whole integer range; everything
// is bit-blasted into a gini circuit.
//
// Integer semantics are bounded: every arithmetic term carries a guard that
// holds only while its value stays in range, and asserting a term asserts
// the guards of all its subterms. There is no wrap-around.
package satsolver

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"slava0135/zdsl/solver"
)

// ErrRange is returned for constants that do not fit the configured width.
var ErrRange = errors.New("value out of range")

const (
	minWidth     = 2
	maxWidth     = 16
	defaultWidth = 8
)

type Backend struct {
	width   int
	timeout time.Duration
}

type Option func(*Backend)

// WithWidth sets the integer width in bits. Sets need 2^bits literals each,
// so widths above 16 are rejected by Open.
func WithWidth(bits int) Option {
	return func(b *Backend) {
		b.width = bits
	}
}

// WithTimeout bounds every solve; a solve that runs out of time reports
// solver.Unknown.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{width: defaultWidth}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string {
	return "sat"
}

func (b *Backend) Width() int {
	return b.width
}

// Range is the smallest and largest representable integer.
func (b *Backend) Range() (lo, hi int64) {
	return -(1 << (b.width - 1)), 1<<(b.width-1) - 1
}

func (b *Backend) Open(opts solver.Options) (solver.Session, error) {
	if b.width < minWidth || b.width > maxWidth {
		return nil, fmt.Errorf("integer width %d not in [%d, %d]", b.width, minWidth, maxWidth)
	}
	c := logic.NewC()
	return &session{
		id:      solver.NextID(),
		width:   b.width,
		timeout: b.timeout,
		opts:    opts,
		c:       c,
		bl:      blaster{c},
	}, nil
}

// term is what a handle of this backend points to. bits holds one literal
// for a Bool, width literals for an Int and 2^width for a Set[Int]. ok is
// the conjunction of the range guards of the term and its subterms.
type term struct {
	desc string
	bits vec
	ok   z.Lit
}

func (t *term) String() string {
	return t.desc
}

type unknown struct {
	name string
	h    solver.Handle
}

type session struct {
	id      uint64
	width   int
	timeout time.Duration
	opts    solver.Options

	c       *logic.C
	bl      blaster
	asserts []z.Lit

	unknowns []unknown
	inputs   []z.Lit
	next     int

	gen    int
	closed bool
}

func (s *session) ID() uint64 {
	return s.id
}

func (s *session) handle(k solver.Kind, desc string, bits vec, ok z.Lit) solver.Handle {
	return solver.NewHandle(s.id, k, &term{desc: desc, bits: bits, ok: ok})
}

func (s *session) setSize() int {
	return 1 << s.width
}

func (s *session) inRange(v int64) bool {
	return v >= -(1<<(s.width-1)) && v <= 1<<(s.width-1)-1
}

func (s *session) Const(k solver.Kind, value any) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	switch v := value.(type) {
	case bool:
		if k != solver.KindBool {
			break
		}
		l := s.c.F
		if v {
			l = s.c.T
		}
		return s.handle(k, fmt.Sprint(v), vec{l}, s.c.T), nil
	case int64:
		if k != solver.KindInt {
			break
		}
		if !s.inRange(v) {
			return solver.Handle{}, fmt.Errorf("constant %d at width %d: %w", v, s.width, ErrRange)
		}
		return s.handle(k, fmt.Sprint(v), s.bl.constant(v, s.width), s.c.T), nil
	case []int64:
		if k != solver.KindIntSet {
			break
		}
		bits := make(vec, s.setSize())
		for i := range bits {
			bits[i] = s.c.F
		}
		parts := make([]string, len(v))
		for i, x := range v {
			if !s.inRange(x) {
				return solver.Handle{}, fmt.Errorf("set element %d at width %d: %w", x, s.width, ErrRange)
			}
			bits[x+1<<(s.width-1)] = s.c.T
			parts[i] = fmt.Sprint(x)
		}
		return s.handle(k, "{"+strings.Join(parts, ", ")+"}", bits, s.c.T), nil
	}
	return solver.Handle{}, fmt.Errorf("constant %v (%T) of kind %s: %w", value, value, k, solver.ErrKind)
}

func (s *session) Fresh(prefix string, k solver.Kind) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	var n int
	switch k {
	case solver.KindBool:
		n = 1
	case solver.KindInt:
		n = s.width
	case solver.KindIntSet:
		n = s.setSize()
	default:
		return solver.Handle{}, fmt.Errorf("fresh %s: %w", k, solver.ErrKind)
	}
	name := fmt.Sprintf("%s!%d", prefix, s.next)
	s.next++
	bits := s.bl.fresh(n)
	h := s.handle(k, name, bits, s.c.T)
	s.unknowns = append(s.unknowns, unknown{name, h})
	s.inputs = append(s.inputs, bits...)
	return h, nil
}

func (s *session) Apply(op solver.Op, args ...solver.Handle) (solver.Handle, error) {
	if s.closed {
		return solver.Handle{}, solver.ErrClosed
	}
	k, err := solver.CheckArgs(s.id, op, args)
	if err != nil {
		return solver.Handle{}, err
	}
	ts := make([]*term, len(args))
	oks := make([]z.Lit, len(args))
	descs := make([]string, len(args))
	for i, a := range args {
		ts[i] = a.Term().(*term)
		oks[i] = ts[i].ok
		descs[i] = ts[i].desc
	}
	bits, guard := s.blast(op, args[0].Kind(), ts)
	desc := "(" + op.String() + " " + strings.Join(descs, " ") + ")"
	return s.handle(k, desc, bits, s.bl.all(append(oks, guard)...)), nil
}

// blast builds the circuit of op applied to ts. argKind is the kind of the
// first argument.
func (s *session) blast(op solver.Op, argKind solver.Kind, ts []*term) (vec, z.Lit) {
	bl, c, w := s.bl, s.c, s.width
	first := func() z.Lit {
		return ts[0].bits[0]
	}
	lits := func() []z.Lit {
		ls := make([]z.Lit, len(ts))
		for i, t := range ts {
			ls[i] = t.bits[0]
		}
		return ls
	}
	elementwise := func(f func(a, b z.Lit) z.Lit) vec {
		out := make(vec, len(ts[0].bits))
		for i := range out {
			out[i] = f(ts[0].bits[i], ts[1].bits[i])
		}
		return out
	}
	wide := func(t *term, n int) vec {
		return ext(t.bits, n)
	}

	switch op {
	case solver.OpNot:
		return vec{first().Not()}, c.T
	case solver.OpAnd:
		return vec{bl.all(lits()...)}, c.T
	case solver.OpOr:
		return vec{bl.some(lits()...)}, c.T
	case solver.OpXor:
		return vec{c.Xor(ts[0].bits[0], ts[1].bits[0])}, c.T
	case solver.OpImplies:
		return vec{c.Implies(ts[0].bits[0], ts[1].bits[0])}, c.T
	case solver.OpIff:
		return vec{bl.iff(ts[0].bits[0], ts[1].bits[0])}, c.T
	case solver.OpIte:
		return bl.mux(first(), ts[1].bits, ts[2].bits), c.T
	case solver.OpEq:
		return vec{bl.eq(ts[0].bits, ts[1].bits)}, c.T
	case solver.OpDistinct:
		var ls []z.Lit
		for i := range ts {
			for j := i + 1; j < len(ts); j++ {
				ls = append(ls, bl.eq(ts[i].bits, ts[j].bits).Not())
			}
		}
		return vec{bl.all(ls...)}, c.T

	case solver.OpAdd, solver.OpSub:
		acc := wide(ts[0], w+1)
		var guards []z.Lit
		for _, t := range ts[1:] {
			if op == solver.OpAdd {
				acc = bl.add(acc, wide(t, w+1), c.F)
			} else {
				acc = bl.sub(acc, wide(t, w+1))
			}
			guards = append(guards, bl.fits(acc, w))
			acc = ext(acc[:w], w+1)
		}
		return acc[:w], bl.all(guards...)
	case solver.OpMul:
		acc := wide(ts[0], 2*w)
		var guards []z.Lit
		for _, t := range ts[1:] {
			acc = bl.mul(acc, wide(t, 2*w))
			guards = append(guards, bl.fits(acc, w))
			acc = ext(acc[:w], 2*w)
		}
		return acc[:w], bl.all(guards...)
	case solver.OpNeg:
		r := bl.neg(wide(ts[0], w+1))
		return r[:w], bl.fits(r, w)
	case solver.OpDiv, solver.OpMod:
		q, r, guard := s.divmod(ts[0].bits, ts[1].bits)
		if op == solver.OpDiv {
			return q, guard
		}
		return r, guard
	case solver.OpLT:
		return vec{bl.slt(ts[0].bits, ts[1].bits)}, c.T
	case solver.OpLE:
		return vec{bl.slt(ts[1].bits, ts[0].bits).Not()}, c.T
	case solver.OpGT:
		return vec{bl.slt(ts[1].bits, ts[0].bits)}, c.T
	case solver.OpGE:
		return vec{bl.slt(ts[0].bits, ts[1].bits).Not()}, c.T

	case solver.OpMember:
		return vec{bl.pick(ts[1].bits, index(ts[0].bits))}, c.T
	case solver.OpInsert:
		hit := bl.decoder(index(ts[1].bits))
		out := make(vec, len(hit))
		for i := range out {
			out[i] = c.Or(ts[0].bits[i], hit[i])
		}
		return out, c.T
	case solver.OpUnion:
		return elementwise(c.Or), c.T
	case solver.OpIntersect:
		return elementwise(c.And), c.T
	case solver.OpDifference:
		return elementwise(func(a, b z.Lit) z.Lit { return c.And(a, b.Not()) }), c.T
	case solver.OpSubset:
		return vec{bl.all(elementwise(c.Implies)...)}, c.T
	}
	// CheckArgs rejects everything else.
	panic(fmt.Sprintf("satsolver: unhandled operator %s on %s", op, argKind))
}

// divmod constrains fresh q and r so that a = b*q + r and 0 <= r < |b|
// whenever b is not zero.
func (s *session) divmod(a, b vec) (q, r vec, guard z.Lit) {
	bl, w := s.bl, s.width
	q, r = bl.fresh(w), bl.fresh(w)
	sum := bl.add(bl.mul(ext(b, 2*w), ext(q, 2*w)), ext(r, 2*w), s.c.F)
	b1 := ext(b, w+1)
	abs := bl.mux(b[w-1], bl.neg(b1), b1)
	guard = s.c.Or(bl.isZero(b), bl.all(
		bl.eq(sum, ext(a, 2*w)),
		r[w-1].Not(),
		bl.slt(ext(r, w+1), abs),
	))
	return q, r, guard
}

func (s *session) Assert(h solver.Handle) error {
	if s.closed {
		return solver.ErrClosed
	}
	if h.Owner() != s.id {
		return fmt.Errorf("assert %s: %w", h, solver.ErrForeignHandle)
	}
	if h.Kind() != solver.KindBool {
		return fmt.Errorf("assert %s of kind %s: %w", h, h.Kind(), solver.ErrKind)
	}
	t := h.Term().(*term)
	s.asserts = append(s.asserts, s.c.And(t.bits[0], t.ok))
	return nil
}

// prepare encodes the circuit into a fresh gini instance.
func (s *session) prepare() (*gini.Gini, z.Lit) {
	root := s.bl.all(s.asserts...)
	// top is the newest variable, so adding it makes g allocate every
	// variable of the circuit, inputs no gate mentions included.
	top := s.c.Lit()
	g := gini.New()
	s.c.ToCnf(g)
	g.Add(s.c.T)
	g.Add(0)
	g.Add(top)
	g.Add(0)
	return g, root
}

func (s *session) solve(g *gini.Gini, root z.Lit) solver.Result {
	s.gen++
	g.Assume(root)
	var r int
	if s.timeout > 0 {
		r = g.GoSolve().Try(s.timeout)
	} else {
		r = g.Solve()
	}
	switch r {
	case 1:
		return solver.Sat
	case -1:
		return solver.Unsat
	default:
		return solver.Unknown
	}
}

func (s *session) Check() (solver.Result, solver.Model, error) {
	if s.closed {
		return solver.Unknown, nil, solver.ErrClosed
	}
	g, root := s.prepare()
	res := s.solve(g, root)
	if res != solver.Sat || !s.opts.Models {
		return res, nil, nil
	}
	return res, s.model(g), nil
}

func (s *session) Models() iter.Seq2[solver.Model, error] {
	return func(yield func(solver.Model, error) bool) {
		if s.closed {
			yield(nil, solver.ErrClosed)
			return
		}
		g, root := s.prepare()
		for !s.closed && s.solve(g, root) == solver.Sat {
			m := s.model(g)
			block := make([]z.Lit, len(s.inputs))
			for i, l := range s.inputs {
				if g.Value(l) {
					block[i] = l.Not()
				} else {
					block[i] = l
				}
			}
			if !yield(m, nil) || len(block) == 0 {
				return
			}
			for _, l := range block {
				g.Add(l)
			}
			g.Add(0)
		}
	}
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.c = nil
	s.asserts = nil
	s.unknowns = nil
	s.inputs = nil
	return nil
}

func (s *session) model(g *gini.Gini) *model {
	return &model{s: s, g: g, gen: s.gen, unknowns: s.unknowns}
}

type model struct {
	s        *session
	g        *gini.Gini
	gen      int
	unknowns []unknown
	closed   bool
}

func (m *model) bits(h solver.Handle, k solver.Kind) (vec, bool) {
	if m.closed || m.s.closed || m.gen != m.s.gen {
		return nil, false
	}
	if h.Owner() != m.s.id || h.Kind() != k {
		return nil, false
	}
	t, ok := h.Term().(*term)
	if !ok {
		return nil, false
	}
	return t.bits, true
}

func (m *model) Bool(h solver.Handle) (bool, bool) {
	bits, ok := m.bits(h, solver.KindBool)
	if !ok {
		return false, false
	}
	return m.g.Value(bits[0]), true
}

func (m *model) Int(h solver.Handle) (int64, bool) {
	bits, ok := m.bits(h, solver.KindInt)
	if !ok {
		return 0, false
	}
	return m.signed(bits), true
}

func (m *model) signed(bits vec) int64 {
	var u uint64
	for i, l := range bits {
		if m.g.Value(l) {
			u |= 1 << uint(i)
		}
	}
	w := uint(len(bits))
	if u&(1<<(w-1)) != 0 {
		return int64(u) - int64(1)<<w
	}
	return int64(u)
}

func (m *model) IntSet(h solver.Handle) ([]int64, bool) {
	bits, ok := m.bits(h, solver.KindIntSet)
	if !ok {
		return nil, false
	}
	lo := int64(-len(bits) / 2)
	out := []int64{}
	for i, l := range bits {
		if m.g.Value(l) {
			out = append(out, lo+int64(i))
		}
	}
	return out, true
}

func (m *model) String() string {
	var sb strings.Builder
	for i, u := range m.unknowns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(u.name)
		sb.WriteString(" = ")
		switch u.h.Kind() {
		case solver.KindBool:
			v, _ := m.Bool(u.h)
			fmt.Fprint(&sb, v)
		case solver.KindInt:
			v, _ := m.Int(u.h)
			fmt.Fprint(&sb, v)
		case solver.KindIntSet:
			v, _ := m.IntSet(u.h)
			fmt.Fprint(&sb, v)
		}
	}
	return sb.String()
}

func (m *model) Close() error {
	m.closed = true
	return nil
}
