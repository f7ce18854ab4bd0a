// Package solver describes the boundary between the DSL and a constraint
// solver. Backends (z3solver, satsolver) implement Session and Model; the dsl
// package only talks to them through the types declared here.
package solver

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
)

var (
	ErrUnsupported   = errors.New("unsupported operation")
	ErrClosed        = errors.New("session closed")
	ErrForeignHandle = errors.New("handle belongs to another session")
	ErrKind          = errors.New("wrong argument kind")
)

// Kind is the sort a backend reports for a native handle.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindIntSet
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindIntSet:
		return "Set[Int]"
	default:
		return "Invalid"
	}
}

// Handle is a term that lives inside exactly one session.
type Handle struct {
	kind  Kind
	owner uint64
	term  any
}

func NewHandle(owner uint64, kind Kind, term any) Handle {
	return Handle{kind: kind, owner: owner, term: term}
}

// Kind is the sort reported by the backend that produced h.
func (h Handle) Kind() Kind {
	return h.kind
}

func (h Handle) Owner() uint64 {
	return h.owner
}

func (h Handle) Term() any {
	return h.term
}

func (h Handle) IsZero() bool {
	return h.term == nil
}

func (h Handle) String() string {
	if h.term == nil {
		return "<nil>"
	}
	if s, ok := h.term.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(h.term)
}

type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

type Options struct {
	// Models asks the session to keep a model after a satisfiable check.
	Models bool
}

type Backend interface {
	Name() string
	Open(opts Options) (Session, error)
}

// Session is one live solver instance. It is not safe for concurrent use.
type Session interface {
	ID() uint64

	// Const builds a constant. Values are bool, int64 and []int64 for
	// KindBool, KindInt and KindIntSet respectively.
	Const(kind Kind, value any) (Handle, error)
	// Fresh builds an unconstrained unknown whose name is unique in the
	// session.
	Fresh(prefix string, kind Kind) (Handle, error)
	Apply(op Op, args ...Handle) (Handle, error)
	Assert(h Handle) error

	// Check returns a model only for Sat, and only if Options.Models was set.
	Check() (Result, Model, error)
	// Models enumerates satisfying models. Every model excludes the
	// assignments of the fresh unknowns seen in earlier models.
	Models() iter.Seq2[Model, error]

	Close() error
}

// Model is an assignment produced by a session. It stays valid until the
// next model of the same session is requested or it is closed.
type Model interface {
	Bool(h Handle) (bool, bool)
	Int(h Handle) (int64, bool)
	IntSet(h Handle) ([]int64, bool)
	String() string
	Close() error
}

var lastID atomic.Uint64

// NextID hands out process-wide session ids.
func NextID() uint64 {
	return lastID.Add(1)
}
