package lang

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/solver"
)

// ResultName is the declaration that GenerateTests treats as the expected
// return value of the function under test.
const ResultName = "result"

// GenerateTests writes a Go test file with one test per model. Each test
// binds the declared unknowns, calls fn with them in declaration order and,
// when a result unknown is declared, compares the return value with it.
// Sets become map[int]bool.
func (p *Program) GenerateTests(w io.Writer, pkg, fn string, models []Assignment) error {
	var params []string
	hasResult := false
	for _, d := range p.decls {
		if d.Name == ResultName {
			if d.Kind == solver.KindIntSet {
				return fmt.Errorf("%s: sets cannot be compared with !=", ResultName)
			}
			hasResult = true
			continue
		}
		params = append(params, d.Name)
	}
	argsStr := strings.Join(params, ", ")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\nimport \"testing\"\n\n", pkg)
	for i, m := range models {
		fmt.Fprintf(&buf, "func Test_%s_%d(t *testing.T) {\n", fn, i+1)
		for _, d := range p.decls {
			name := d.Name
			if name == ResultName {
				name = "want"
			}
			code, err := initValue(name, d.Kind, m[d.Name])
			if err != nil {
				return fmt.Errorf("model %d: %w", i+1, err)
			}
			fmt.Fprintf(&buf, "\t%s\n", code)
		}
		if !hasResult {
			fmt.Fprintf(&buf, "\t%s(%s)\n}\n\n", fn, argsStr)
			continue
		}
		fmt.Fprintf(&buf, "\tgot := %s(%s)\n", fn, argsStr)
		fmt.Fprintf(&buf, "\tif got != want {\n")
		fmt.Fprintf(&buf, "\t\tt.Errorf(\"%s(%s) = %%v; want %%v\", got, want)\n", fn, argsStr)
		fmt.Fprintf(&buf, "\t}\n}\n\n")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(src)
	return err
}

func initValue(name string, k solver.Kind, v any) (string, error) {
	switch k {
	case solver.KindInt:
		i, ok := v.(int)
		if !ok {
			return "", fmt.Errorf("%s: %v is not an int", name, v)
		}
		return fmt.Sprintf("%s := %d", name, i), nil
	case solver.KindBool:
		b, ok := v.(bool)
		if !ok {
			return "", fmt.Errorf("%s: %v is not a bool", name, v)
		}
		return fmt.Sprintf("%s := %t", name, b), nil
	case solver.KindIntSet:
		s, ok := v.(dsl.IntSet)
		if !ok {
			return "", fmt.Errorf("%s: %v is not a set", name, v)
		}
		elems := make([]string, len(s))
		for i, x := range s {
			elems[i] = fmt.Sprintf("%d: true", x)
		}
		return fmt.Sprintf("%s := map[int]bool{%s}", name, strings.Join(elems, ", ")), nil
	default:
		return "", fmt.Errorf("%s: unknown kind %s", name, k)
	}
}
