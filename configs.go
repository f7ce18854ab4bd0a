package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"slava0135/zdsl/dsl"
	"slava0135/zdsl/satsolver"
	"slava0135/zdsl/solver"
	"slava0135/zdsl/z3solver"
)

type MainConfig struct {
	Backend string `cli:"name=backend desc='solver backend: sat or z3 (default sat)'"`
	Width   int    `cli:"name=width desc='integer width in bits for the sat backend (default 8)'"`
	Verbose bool   `cli:"name=v desc='log session lifecycle to stderr'"`

	Main *cli.Command
}

func (cfg *MainConfig) backend() (solver.Backend, error) {
	switch cfg.Backend {
	case "", "sat":
		var opts []satsolver.Option
		if cfg.Width != 0 {
			opts = append(opts, satsolver.WithWidth(cfg.Width))
		}
		return satsolver.New(opts...), nil
	case "z3":
		return z3solver.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", cli.ErrUsage, cfg.Backend)
	}
}

func (cfg *MainConfig) setupLogging() error {
	if !cfg.Verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	dsl.SetLogger(l)
	return nil
}

type FindConfig struct {
	*MainConfig

	Decls  string `cli:"name=d aliases=decls desc='unknowns, as in x:int,b:bool,s:set'"`
	Verify bool   `cli:"name=verify desc='check the model by evaluating the constraint'"`
	Y      bool   `cli:"name=y aliases=yaml desc='print the result as yaml'"`
	Tree   bool   `cli:"name=tree desc='print the lowered constraint as yaml'"`

	Find *cli.Command
}

type AllConfig struct {
	*MainConfig

	Decls string `cli:"name=d aliases=decls desc='unknowns, as in x:int,b:bool,s:set'"`
	Limit int    `cli:"name=limit desc='stop after this many models (default no limit)'"`
	Y     bool   `cli:"name=y aliases=yaml desc='print the models as yaml'"`
	Gen   string `cli:"name=gen desc='write one Go test of this function per model'"`
	Pkg   string `cli:"name=pkg desc='package clause of generated tests (default main)'"`

	All *cli.Command
}

type DemoConfig struct {
	*MainConfig

	Demo *cli.Command
}

// palette colors output written to a terminal and leaves everything else
// plain.
type palette struct {
	sat, unsat, name func(string, ...any) string
}

func newPalette(w io.Writer) *palette {
	plain := func(format string, args ...any) string {
		return fmt.Sprintf(format, args...)
	}
	p := &palette{sat: plain, unsat: plain, name: plain}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return p
	}
	p.sat = color.GreenString
	p.unsat = color.RedString
	p.name = color.RGB(196, 96, 16).SprintfFunc()
	return p
}
