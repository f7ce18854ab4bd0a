package dsl

import (
	"iter"

	"slava0135/zdsl/satsolver"
	"slava0135/zdsl/solver"
)

// counting wraps a backend and counts every session and model it hands out
// together with every Close call on them.
type counting struct {
	solver.Backend

	sessions      int
	sessionCloses int
	models        int
	modelCloses   int
}

func newCounting() *counting {
	return &counting{Backend: satsolver.New()}
}

func (c *counting) Open(opts solver.Options) (solver.Session, error) {
	s, err := c.Backend.Open(opts)
	if err != nil {
		return nil, err
	}
	c.sessions++
	return &countingSession{Session: s, c: c}, nil
}

func (c *counting) balanced() bool {
	return c.sessions == c.sessionCloses && c.models == c.modelCloses
}

type countingSession struct {
	solver.Session
	c *counting
}

func (s *countingSession) wrap(m solver.Model) solver.Model {
	if m == nil {
		return nil
	}
	s.c.models++
	return &countingModel{Model: m, c: s.c}
}

func (s *countingSession) Check() (solver.Result, solver.Model, error) {
	res, m, err := s.Session.Check()
	return res, s.wrap(m), err
}

func (s *countingSession) Models() iter.Seq2[solver.Model, error] {
	return func(yield func(solver.Model, error) bool) {
		for m, err := range s.Session.Models() {
			if !yield(s.wrap(m), err) {
				return
			}
		}
	}
}

func (s *countingSession) Close() error {
	s.c.sessionCloses++
	return s.Session.Close()
}

type countingModel struct {
	solver.Model
	c *counting
}

func (m *countingModel) Close() error {
	m.c.modelCloses++
	return m.Model.Close()
}

// undecided gives up on every check. With withModel set it still hands out
// a model, which the caller has to close.
type undecided struct {
	solver.Backend
	withModel bool
}

func (b undecided) Open(opts solver.Options) (solver.Session, error) {
	s, err := b.Backend.Open(opts)
	if err != nil {
		return nil, err
	}
	return undecidedSession{s, b.withModel}, nil
}

type undecidedSession struct {
	solver.Session
	withModel bool
}

func (s undecidedSession) Check() (solver.Result, solver.Model, error) {
	if s.withModel {
		return solver.Unknown, emptyModel{}, nil
	}
	return solver.Unknown, nil, nil
}

func (undecidedSession) Models() iter.Seq2[solver.Model, error] {
	return func(func(solver.Model, error) bool) {}
}

// emptyModel assigns nothing.
type emptyModel struct{}

func (emptyModel) Bool(solver.Handle) (bool, bool)     { return false, false }
func (emptyModel) Int(solver.Handle) (int64, bool)     { return 0, false }
func (emptyModel) IntSet(solver.Handle) ([]int64, bool) { return nil, false }
func (emptyModel) String() string                      { return "{}" }
func (emptyModel) Close() error                        { return nil }
