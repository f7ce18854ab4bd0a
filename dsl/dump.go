package dsl

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type dumpNode struct {
	Sort  string      `yaml:"sort"`
	Const string      `yaml:"const,omitempty"`
	Var   string      `yaml:"var,omitempty"`
	Op    string      `yaml:"op,omitempty"`
	Args  []*dumpNode `yaml:"args,omitempty"`
}

func toDump(n *node) *dumpNode {
	d := &dumpNode{Sort: n.element().name}
	switch n.form {
	case formLiteral:
		d.Const = fmt.Sprint(n.lit)
	case formNative:
		d.Var = n.h.String()
	case formApply:
		d.Op = n.op.String()
		for _, a := range n.args {
			d.Args = append(d.Args, toDump(a))
		}
	}
	return d
}

// Dump renders e as YAML.
func Dump(e Expr) (string, error) {
	if e.n == nil {
		return "", ErrEmptyTree
	}
	d, err := yaml.Marshal(toDump(e.n))
	if err != nil {
		return "", err
	}
	return string(d), nil
}
