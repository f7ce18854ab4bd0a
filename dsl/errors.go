package dsl

import (
	"errors"
	"fmt"

	"slava0135/zdsl/solver"
)

var (
	// ErrUnsatisfiable is returned by the Choose family when no assignment
	// satisfies the constraint.
	ErrUnsatisfiable = errors.New("unsatisfiable constraint")
	ErrNoHandler     = errors.New("no value handler")
	ErrEmptyTree     = errors.New("empty tree")
)

// SortMismatchError reports a value used where a term of another sort was
// expected.
type SortMismatchError struct {
	Want  solver.Kind
	Got   solver.Kind
	Value string
}

func (e *SortMismatchError) Error() string {
	return fmt.Sprintf("sort mismatch: %s has sort %s, want %s", e.Value, e.Got, e.Want)
}

func mismatch(want solver.Kind, h solver.Handle) error {
	return &SortMismatchError{Want: want, Got: h.Kind(), Value: h.String()}
}
