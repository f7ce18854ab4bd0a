package dsl

import (
	"fmt"

	"go.uber.org/zap"

	"slava0135/zdsl/solver"
)

type state int

const (
	stateCreated state = iota
	stateUnknownsBuilt
	stateAsserted
	stateChecked
	stateDecoded
	stateReleased
)

func (st state) String() string {
	switch st {
	case stateCreated:
		return "created"
	case stateUnknownsBuilt:
		return "unknowns built"
	case stateAsserted:
		return "constraint asserted"
	case stateChecked:
		return "checked"
	case stateDecoded:
		return "decoded"
	case stateReleased:
		return "released"
	default:
		return "invalid"
	}
}

// Session wraps a backend session with the per-session materialization
// cache. The combinators open and release sessions themselves; Open is for
// callers that want to mix DSL trees with native handles.
type Session struct {
	native solver.Session
	cache  map[*node]solver.Handle
	state  state
	log    *zap.Logger
}

func Open(b solver.Backend, opts solver.Options) (*Session, error) {
	ns, err := b.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", b.Name(), err)
	}
	s := &Session{
		native: ns,
		cache:  make(map[*node]solver.Handle),
		log:    log().With(zap.Uint64("session", ns.ID()), zap.String("backend", b.Name())),
	}
	s.advance(stateCreated)
	return s, nil
}

func (s *Session) Native() solver.Session {
	return s.native
}

// Assert materializes t and asserts it.
func (s *Session) Assert(t Tree[BoolSort]) error {
	h, err := t.Materialize(s)
	if err != nil {
		return err
	}
	if err := s.native.Assert(h); err != nil {
		return err
	}
	s.advance(stateAsserted)
	return nil
}

// Close releases the backend session. Only the first call does anything.
func (s *Session) Close() error {
	if s.state == stateReleased {
		return nil
	}
	s.advance(stateReleased)
	s.cache = nil
	return s.native.Close()
}

func (s *Session) advance(st state, fields ...zap.Field) {
	s.state = st
	s.log.Debug(st.String(), fields...)
}

func (s *Session) fresh(prefix string, k solver.Kind) (*node, error) {
	if s.state == stateReleased {
		return nil, solver.ErrClosed
	}
	h, err := s.native.Fresh(prefix, k)
	if err != nil {
		return nil, err
	}
	n := native(h)
	s.cache[n] = h
	return n, nil
}

func (s *Session) materialize(n *node) (solver.Handle, error) {
	if n == nil {
		return solver.Handle{}, ErrEmptyTree
	}
	if s.state == stateReleased {
		return solver.Handle{}, solver.ErrClosed
	}
	if h, ok := s.cache[n]; ok {
		return h, nil
	}
	var (
		h   solver.Handle
		err error
	)
	switch n.form {
	case formLiteral:
		k := n.kind
		if k == solver.KindInvalid {
			k = naturalKind(n.lit)
		}
		h, err = s.native.Const(k, constValue(n.lit))
	case formNative:
		if n.h.Owner() != s.native.ID() {
			return solver.Handle{}, fmt.Errorf("materialize %s: %w", n.h, solver.ErrForeignHandle)
		}
		h = n.h
	case formApply:
		args := make([]solver.Handle, len(n.args))
		for i, a := range n.args {
			args[i], err = s.materialize(a)
			if err != nil {
				return solver.Handle{}, err
			}
		}
		h, err = s.native.Apply(n.op, args...)
	default:
		err = fmt.Errorf("materialize: invalid node form %d", n.form)
	}
	if err != nil {
		return solver.Handle{}, err
	}
	s.cache[n] = h
	return h, nil
}

func constValue(lit any) any {
	s, ok := lit.(IntSet)
	if !ok {
		return lit
	}
	vs := make([]int64, len(s))
	for i, v := range s {
		vs[i] = int64(v)
	}
	return vs
}
