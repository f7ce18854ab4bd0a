package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "zdsl").
		WithSynopsis("zdsl [opts] command [opts]").
		WithDescription("zdsl finds values satisfying typed constraints.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return zdslMain(cfg, cc, args)
		}).
		WithSubs(
			FindCommand(cfg),
			AllCommand(cfg),
			DemoCommand(cfg))
}

func FindCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FindConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("find").
		WithAliases("f").
		WithSynopsis("find -d decls [-verify] [-y] [-tree] constraint").
		WithDescription("find one assignment satisfying the constraint").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return find(cfg, cc, args)
		})
	cfg.Find = cmd
	return cmd
}

func AllCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AllConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("all").
		WithAliases("a").
		WithSynopsis("all -d decls [-limit n] [-y | -gen func [-pkg name]] constraint").
		WithDescription("list assignments satisfying the constraint").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return all(cfg, cc, args)
		})
	cfg.All = cmd
	return cmd
}

func DemoCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DemoConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("demo").
		WithSynopsis("demo").
		WithDescription("run the path condition demos").
		WithRun(func(cc *cli.Context, args []string) error {
			return demo(cfg, cc, args)
		})
	cfg.Demo = cmd
	return cmd
}
