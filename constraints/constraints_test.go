package constraints

import (
	"bytes"
	"strings"
	"testing"

	"slava0135/zdsl/satsolver"
)

func TestAll(t *testing.T) {
	var buf bytes.Buffer
	if err := All(&buf, satsolver.New()); err != nil {
		t.Fatalf("%v\noutput:\n%s", err, buf.String())
	}
	out := buf.String()
	for _, want := range []string{
		":: a > b\n",
		":: (a * b == 12) && (a + b == 7) && (a < b)\na = 3, b = 4\n",
		":: (a / 3 == -2) && (a % 3 == 2) && (b == -a)\na = -4, b = 4\n",
		":: (p => q) && (q => r) && p && !r\nunsat\n",
		":: (index in seen) && (value in insert(seen, index + 1))\nseen = {0, 1, 2, 3}, index = 3, value = 4\n",
		":: (result % 2 == 0) && (0 <= j < 6)\nj in [1 3 5]\n",
		":: (result % 2 != 0) && (0 <= j < 6)\nj in [0 2 4]\n",
		"a = 0, b = 1\na = 0, b = 2\na = 1, b = 2\n",
		":: first 3 of x >= 100\n3 models\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if got := strings.Count(out, ":: "); got != 21 {
		t.Errorf("got %d paths, want 21", got)
	}
}

func TestSolve_UnexpectedUnsat(t *testing.T) {
	var buf bytes.Buffer
	err := solve(&buf, "false", func() (model, error) { return model{}, nil })
	if err == nil || !strings.Contains(err.Error(), "unexpected unsat") {
		t.Errorf("got %v", err)
	}
	err = solveUnsat(&buf, "true", func() (model, error) { return found("x = 1"), nil })
	if err == nil {
		t.Error("feasible path reported as infeasible")
	}
}
