// Package constraints holds small path-condition demos: each one prints a Go
// function and finds inputs that drive it down every branch.
package constraints

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"slava0135/zdsl/solver"
)

var errUnexpectedUnsat = errors.New("unexpected unsat")

// model is a found assignment rendered for printing.
type model struct {
	text string
	ok   bool
}

func found(format string, args ...any) model {
	return model{text: fmt.Sprintf(format, args...), ok: true}
}

func solve(w io.Writer, path string, find func() (model, error)) error {
	printPath(w, path)
	m, err := find()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !m.ok {
		return fmt.Errorf("%s: %w", path, errUnexpectedUnsat)
	}
	fmt.Fprintln(w, m.text)
	return nil
}

// solveUnsat runs a path that must be infeasible.
func solveUnsat(w io.Writer, path string, find func() (model, error)) error {
	printPath(w, path)
	m, err := find()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if m.ok {
		return fmt.Errorf("%s: infeasible path has model %s", path, m.text)
	}
	fmt.Fprintln(w, "unsat")
	return nil
}

func printSrc(w io.Writer, src string) {
	maxLen := 0
	for _, line := range strings.Split(src, "\n") {
		maxLen = max(maxLen, len(line))
	}
	fmt.Fprint(w, strings.Repeat("%", maxLen))
	fmt.Fprintln(w, src)
	fmt.Fprintln(w, strings.Repeat("%", maxLen))
	fmt.Fprintln(w)
}

func printPath(w io.Writer, path string) {
	fmt.Fprintln(w, ":: "+path)
}

// All runs every demo in order and stops at the first failure.
func All(w io.Writer, b solver.Backend) error {
	for _, demo := range []func(io.Writer, solver.Backend) error{
		IntegerOperations,
		BooleanOperations,
		SetOperations,
		MixedOperations,
		Enumeration,
	} {
		if err := demo(w, b); err != nil {
			return err
		}
	}
	return nil
}
