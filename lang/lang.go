// Package lang reads constraints written in expr syntax and solves them with
// the dsl combinators.
//
//	x > 0 && y in set(1, 2, 3) && x + y == 10
//
// Unknowns are declared separately with ParseDecls. Integers support
// + - * / % and the comparisons, sets are written as array literals or with
// set(...), and `in` tests membership.
package lang

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/expr-lang/expr/parser"
	"go.uber.org/multierr"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

var ErrDecl = errors.New("bad declaration")

// Decl declares one unknown.
type Decl struct {
	Name string
	Kind solver.Kind
}

var kindNames = map[string]solver.Kind{
	"bool": solver.KindBool,
	"int":  solver.KindInt,
	"set":  solver.KindIntSet,
}

// ParseDecls reads a comma separated list of name:type pairs, where type is
// bool, int or set.
func ParseDecls(s string) ([]Decl, error) {
	var decls []Decl
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ, ok := strings.Cut(part, ":")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !ok || !isIdent(name) {
			return nil, fmt.Errorf("%w: %q", ErrDecl, part)
		}
		k, ok := kindNames[typ]
		if !ok {
			return nil, fmt.Errorf("%w: unknown type %q of %s", ErrDecl, typ, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s declared twice", ErrDecl, name)
		}
		if _, ok := calls[name]; ok || keywords[name] {
			return nil, fmt.Errorf("%w: %s is reserved", ErrDecl, name)
		}
		seen[name] = true
		decls = append(decls, Decl{Name: name, Kind: k})
	}
	if len(decls) == 0 {
		return nil, fmt.Errorf("%w: no unknowns", ErrDecl)
	}
	return decls, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Assignment maps every declared name to its decoded value: bool, int or
// dsl.IntSet.
type Assignment map[string]any

type Program struct {
	src   string
	decls []Decl
	tree  *parser.Tree
	check *checkProgram
}

// Compile parses src and checks that it is a boolean constraint over decls.
func Compile(src string, decls []Decl) (*Program, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	p := &Program{src: src, decls: decls, tree: tree}

	vars := make(map[string]dsl.Expr, len(decls))
	for _, d := range decls {
		vars[d.Name] = placeholder(d.Kind)
	}
	e, err := lower(tree.Node, vars)
	if err != nil {
		return nil, err
	}
	if e.Kind() != solver.KindBool {
		return nil, fmt.Errorf("constraint %s has sort %s, want Bool", src, e.Kind())
	}
	if p.check, err = compileCheck(src, decls); err != nil {
		return nil, err
	}
	return p, nil
}

func placeholder(k solver.Kind) dsl.Expr {
	switch k {
	case solver.KindBool:
		return dsl.Erase(dsl.BoolConst(false))
	case solver.KindInt:
		return dsl.Erase(dsl.IntConst(0))
	default:
		return dsl.Erase(dsl.EmptySet())
	}
}

func (p *Program) Source() string {
	return p.src
}

func (p *Program) Decls() []Decl {
	return p.decls
}

// Expr lowers the constraint over the given unknowns, one per declaration.
func (p *Program) Expr(unknowns []dsl.Expr) (dsl.Expr, error) {
	if len(unknowns) != len(p.decls) {
		return dsl.Expr{}, fmt.Errorf("got %d unknowns for %d declarations", len(unknowns), len(p.decls))
	}
	vars := make(map[string]dsl.Expr, len(p.decls))
	for i, d := range p.decls {
		vars[d.Name] = unknowns[i]
	}
	return lower(p.tree.Node, vars)
}

func (p *Program) kinds() []solver.Kind {
	ks := make([]solver.Kind, len(p.decls))
	for i, d := range p.decls {
		ks[i] = d.Kind
	}
	return ks
}

func (p *Program) assignment(vals []any) Assignment {
	a := make(Assignment, len(vals))
	for i, d := range p.decls {
		a[d.Name] = vals[i]
	}
	return a
}

func (p *Program) Find(b solver.Backend) (Assignment, bool, error) {
	vals, ok, err := dsl.Solve(b, p.kinds(), p.Expr)
	if !ok || err != nil {
		return nil, false, err
	}
	return p.assignment(vals), true, nil
}

func (p *Program) FindAll(b solver.Backend) iter.Seq2[Assignment, error] {
	return func(yield func(Assignment, error) bool) {
		for vals, err := range dsl.SolveAll(b, p.kinds(), p.Expr) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(p.assignment(vals), nil) {
				return
			}
		}
	}
}

// Format prints a in declaration order.
func (p *Program) Format(a Assignment) string {
	parts := make([]string, len(p.decls))
	for i, d := range p.decls {
		parts[i] = fmt.Sprintf("%s = %v", d.Name, a[d.Name])
	}
	return strings.Join(parts, ", ")
}

// Dump renders the lowered constraint as YAML, with one fresh unknown of b
// standing in for each declaration.
func (p *Program) Dump(b solver.Backend) (out string, err error) {
	s, err := dsl.Open(b, solver.Options{})
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	unknowns := make([]dsl.Expr, len(p.decls))
	for i, d := range p.decls {
		h, err := s.Native().Fresh(d.Name, d.Kind)
		if err != nil {
			return "", err
		}
		t, err := dsl.Native[dsl.BottomSort](h)
		if err != nil {
			return "", err
		}
		unknowns[i] = dsl.Erase(t)
	}
	e, err := p.Expr(unknowns)
	if err != nil {
		return "", err
	}
	return dsl.Dump(e)
}
