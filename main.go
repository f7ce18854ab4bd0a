package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/scott-cotton/cli"
	"gopkg.in/yaml.v3"

	"slava0135/zdsl/constraints"
	"slava0135/zdsl/lang"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func zdslMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if err := cfg.setupLogging(); err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func compile(decls string, args []string) (*lang.Program, error) {
	if decls == "" {
		return nil, fmt.Errorf("%w: -d is required", cli.ErrUsage)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing constraint", cli.ErrUsage)
	}
	ds, err := lang.ParseDecls(decls)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return lang.Compile(strings.Join(args, " "), ds)
}

type findOutput struct {
	Result   string          `yaml:"result"`
	Model    lang.Assignment `yaml:"model,omitempty"`
	Verified *bool           `yaml:"verified,omitempty"`
}

func find(cfg *FindConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Find.Parse(cc, args)
	if err != nil {
		return err
	}
	p, err := compile(cfg.Decls, args)
	if err != nil {
		return err
	}
	b, err := cfg.backend()
	if err != nil {
		return err
	}
	if cfg.Tree {
		d, err := p.Dump(b)
		if err != nil {
			return err
		}
		fmt.Fprint(cc.Out, d)
		return nil
	}

	a, ok, err := p.Find(b)
	if err != nil {
		return err
	}
	out := findOutput{Result: "unsat"}
	if ok {
		out.Result, out.Model = "sat", a
		if cfg.Verify {
			v, err := p.Verify(a)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			out.Verified = &v
		}
	}
	if cfg.Y {
		d, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		_, err = cc.Out.Write(d)
		return err
	}

	pal := newPalette(cc.Out)
	if !ok {
		fmt.Fprintln(cc.Out, pal.unsat("unsat"))
		return nil
	}
	fmt.Fprintln(cc.Out, pal.sat("sat"))
	printAssignment(cc, pal, p, a)
	if out.Verified != nil {
		if *out.Verified {
			fmt.Fprintln(cc.Out, pal.sat("verified"))
		} else {
			fmt.Fprintln(cc.Out, pal.unsat("model does not satisfy the constraint"))
		}
	}
	return nil
}

func printAssignment(cc *cli.Context, pal *palette, p *lang.Program, a lang.Assignment) {
	for _, d := range p.Decls() {
		fmt.Fprintf(cc.Out, "%s = %v\n", pal.name("%s", d.Name), a[d.Name])
	}
}

func all(cfg *AllConfig, cc *cli.Context, args []string) error {
	args, err := cfg.All.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", cli.ErrUsage, cfg.Limit)
	}
	p, err := compile(cfg.Decls, args)
	if err != nil {
		return err
	}
	b, err := cfg.backend()
	if err != nil {
		return err
	}

	var models []lang.Assignment
	pal := newPalette(cc.Out)
	for a, err := range p.FindAll(b) {
		if err != nil {
			return err
		}
		models = append(models, a)
		if !cfg.Y && cfg.Gen == "" {
			fmt.Fprintln(cc.Out, pal.sat("-- model %d", len(models)))
			printAssignment(cc, pal, p, a)
		}
		if cfg.Limit > 0 && len(models) == cfg.Limit {
			break
		}
	}
	if cfg.Gen != "" {
		pkg := cfg.Pkg
		if pkg == "" {
			pkg = "main"
		}
		return p.GenerateTests(cc.Out, pkg, cfg.Gen, models)
	}
	if cfg.Y {
		d, err := yaml.Marshal(models)
		if err != nil {
			return err
		}
		_, err = cc.Out.Write(d)
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(cc.Out, pal.unsat("unsat"))
	}
	return nil
}

func demo(cfg *DemoConfig, cc *cli.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: demo takes no arguments", cli.ErrUsage)
	}
	b, err := cfg.backend()
	if err != nil {
		return err
	}
	return constraints.All(cc.Out, b)
}
