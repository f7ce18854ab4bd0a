package lang

import (
	"errors"
	goparser "go/parser"
	"go/token"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"golang.org/x/tools/txtar"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/satsolver"
	"slava0135/zdsl/solver"
)

func section(a *txtar.Archive, name string) (string, bool) {
	for _, f := range a.Files {
		if f.Name == name {
			return strings.TrimSpace(string(f.Data)), true
		}
	}
	return "", false
}

func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no scripts")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			a, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			runScript(t, a)
		})
	}
}

func runScript(t *testing.T, a *txtar.Archive) {
	ds, _ := section(a, "decls")
	src, _ := section(a, "constraint")
	decls, err := ParseDecls(ds)
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compile(src, decls)
	if wantErr, ok := section(a, "error"); ok {
		if err == nil || !strings.Contains(err.Error(), wantErr) {
			t.Fatalf("got error %v, want one containing %q", err, wantErr)
		}
		return
	}
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for asg, err := range p.FindAll(satsolver.New()) {
		if err != nil {
			t.Fatal(err)
		}
		ok, err := p.Verify(asg)
		if err != nil {
			t.Fatalf("verify %v: %v", asg, err)
		}
		if !ok {
			t.Errorf("model %s does not satisfy %s", p.Format(asg), src)
		}
		got = append(got, p.Format(asg))
	}
	slices.Sort(got)

	var want []string
	if w, _ := section(a, "want"); w != "" {
		want = strings.Split(w, "\n")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("models (-want +got):\n%s", diff)
	}
}

func TestParseDecls(t *testing.T) {
	got, err := ParseDecls(" x:int, flag : bool,s:set, ")
	if err != nil {
		t.Fatal(err)
	}
	want := []Decl{
		{"x", solver.KindInt},
		{"flag", solver.KindBool},
		{"s", solver.KindIntSet},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decls (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "x", "x:real", "1x:int", "x:int,x:bool", "set:set", "in:int"} {
		if _, err := ParseDecls(bad); !errors.Is(err, ErrDecl) {
			t.Errorf("%q: got %v, want %v", bad, err, ErrDecl)
		}
	}
}

func TestFind(t *testing.T) {
	decls, err := ParseDecls("x:int, s:set")
	if err != nil {
		t.Fatal(err)
	}
	p, err := Compile("x * x == 49 && x > 0 && s == [x, 1]", decls)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := p.Find(satsolver.New())
	if err != nil || !ok {
		t.Fatalf("got %v, %v", ok, err)
	}
	want := Assignment{"x": 7, "s": dsl.NewIntSet(1, 7)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assignment (-want +got):\n%s", diff)
	}
	if s := p.Format(got); s != "x = 7, s = {1, 7}" {
		t.Errorf("format: got %s", s)
	}
}

func TestFind_Unsat(t *testing.T) {
	decls, _ := ParseDecls("b:bool")
	p, err := Compile("b && !b", decls)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := p.Find(satsolver.New())
	if err != nil || ok || got != nil {
		t.Errorf("got %v, %t, %v; want no assignment", got, ok, err)
	}
}

func TestVerify(t *testing.T) {
	decls, _ := ParseDecls("x:int, y:int")
	p, err := Compile("x / y == -3 && x % y == 1", decls)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, y int
		want bool
	}{
		{-5, 2, true},
		{7, -2, true},
		{-7, 2, false},
	}
	for _, tt := range tests {
		got, err := p.Verify(Assignment{"x": tt.x, "y": tt.y})
		if err != nil {
			t.Errorf("%d, %d: %v", tt.x, tt.y, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%d, %d: got %t, want %t", tt.x, tt.y, got, tt.want)
		}
	}
	if _, err := p.Verify(Assignment{"x": 1, "y": 0}); !errors.Is(err, ErrDivByZero) {
		t.Errorf("zero divisor: got %v, want %v", err, ErrDivByZero)
	}
	if _, err := p.Verify(Assignment{"x": 1}); err == nil {
		t.Error("missing y: got no error")
	}
}

func TestExpr(t *testing.T) {
	decls, _ := ParseDecls("x:int")
	p, err := Compile("not (x in [1, 2]) || x >= 10", decls)
	if err != nil {
		t.Fatal(err)
	}
	e, err := p.Expr([]dsl.Expr{dsl.Erase(dsl.IntConst(4))})
	if err != nil {
		t.Fatal(err)
	}
	want := "(or (not (member 4 (insert (insert {} 1) 2))) (>= 4 10))"
	if got := e.String(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if _, err := p.Expr(nil); err == nil {
		t.Error("no unknowns: got no error")
	}
}

func TestDump(t *testing.T) {
	decls, _ := ParseDecls("x:int, s:set")
	p, err := Compile("x in s", decls)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Dump(satsolver.New())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"op: member", "var: x!0", "var: s!1", "sort: Bool"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}

var errRelease = errors.New("release failed")

// failingRelease reports an error from every session Close.
type failingRelease struct {
	solver.Backend
}

func (b failingRelease) Open(opts solver.Options) (solver.Session, error) {
	s, err := b.Backend.Open(opts)
	if err != nil {
		return nil, err
	}
	return failingReleaseSession{s}, nil
}

type failingReleaseSession struct {
	solver.Session
}

func (s failingReleaseSession) Close() error {
	return multierr.Append(s.Session.Close(), errRelease)
}

func TestDump_ReleaseError(t *testing.T) {
	decls, _ := ParseDecls("x:int")
	p, err := Compile("x > 0", decls)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Dump(failingRelease{satsolver.New()}); !errors.Is(err, errRelease) {
		t.Errorf("got %v, want %v", err, errRelease)
	}
}

func TestGenerateTests(t *testing.T) {
	decls, _ := ParseDecls("a:int, b:int, seen:set, result:int")
	p, err := Compile("a > b && result == 1 && a in seen", decls)
	if err != nil {
		t.Fatal(err)
	}
	models := []Assignment{
		{"a": 2, "b": -1, "seen": dsl.NewIntSet(2), "result": 1},
		{"a": 5, "b": 0, "seen": dsl.NewIntSet(5, 7), "result": 1},
	}
	var buf strings.Builder
	if err := p.GenerateTests(&buf, "main", "compare", models); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if _, err := goparser.ParseFile(token.NewFileSet(), "gen_test.go", out, 0); err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, out)
	}
	for _, want := range []string{
		"func Test_compare_2(t *testing.T) {",
		"seen := map[int]bool{5: true, 7: true}",
		"want := 1",
		"got := compare(a, b, seen)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated code lacks %q:\n%s", want, out)
		}
	}

	decls, _ = ParseDecls("s:set, result:set")
	p, err = Compile("seteq(s, result)", decls)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.GenerateTests(&buf, "main", "id", nil); err == nil {
		t.Error("set result: got no error")
	}
}
