package dsl

import "slava0135/zdsl/solver"

// The operators below accept any operand form. A native handle of the wrong
// sort makes them panic with a *SortMismatchError; the combinators turn such
// a panic raised inside a predicate back into an error. Use ToBool, ToInt and
// ToSet to check handles up front.

func Not[A BoolArg](a A) Tree[BoolSort] {
	return apply[BoolSort](solver.OpNot, mustBool(a))
}

func And[A, B BoolArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpAnd, mustBool(a), mustBool(b))
}

func Or[A, B BoolArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpOr, mustBool(a), mustBool(b))
}

func Xor[A, B BoolArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpXor, mustBool(a), mustBool(b))
}

func Implies[A, B BoolArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpImplies, mustBool(a), mustBool(b))
}

func Iff[A, B BoolArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpIff, mustBool(a), mustBool(b))
}

// All is the conjunction of ts; true when ts is empty.
func All(ts ...Tree[BoolSort]) Tree[BoolSort] {
	if len(ts) == 0 {
		return BoolConst(true)
	}
	return apply[BoolSort](solver.OpAnd, nodes(ts)...)
}

// Any is the disjunction of ts; false when ts is empty.
func Any(ts ...Tree[BoolSort]) Tree[BoolSort] {
	if len(ts) == 0 {
		return BoolConst(false)
	}
	return apply[BoolSort](solver.OpOr, nodes(ts)...)
}

func Ite[C BoolArg, A, B IntArg](c C, a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpIte, mustBool(c), mustInt(a), mustInt(b))
}

func Eq[A, B IntArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpEq, mustInt(a), mustInt(b))
}

func NE[A, B IntArg](a A, b B) Tree[BoolSort] {
	return Not(Eq(a, b))
}

func LT[A, B IntArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpLT, mustInt(a), mustInt(b))
}

func LE[A, B IntArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpLE, mustInt(a), mustInt(b))
}

func GT[A, B IntArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpGT, mustInt(a), mustInt(b))
}

func GE[A, B IntArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpGE, mustInt(a), mustInt(b))
}

func Distinct[A IntArg](xs ...A) Tree[BoolSort] {
	ns := make([]*node, len(xs))
	for i, x := range xs {
		ns[i] = mustInt(x)
	}
	if len(ns) < 2 {
		return All()
	}
	return apply[BoolSort](solver.OpDistinct, ns...)
}

func Add[A, B IntArg](a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpAdd, mustInt(a), mustInt(b))
}

func Sub[A, B IntArg](a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpSub, mustInt(a), mustInt(b))
}

func Mul[A, B IntArg](a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpMul, mustInt(a), mustInt(b))
}

// Div is integer division with SMT-LIB semantics: the remainder Mod(a, b)
// is never negative. Division by zero is left unconstrained.
func Div[A, B IntArg](a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpDiv, mustInt(a), mustInt(b))
}

func Mod[A, B IntArg](a A, b B) Tree[IntSort] {
	return apply[IntSort](solver.OpMod, mustInt(a), mustInt(b))
}

func Neg[A IntArg](a A) Tree[IntSort] {
	return apply[IntSort](solver.OpNeg, mustInt(a))
}

// IntConst and BoolConst are constants whose sort is fixed up front,
// unlike Lit.
func IntConst(v int) Tree[IntSort] {
	return Tree[IntSort]{pin(literal(v), solver.KindInt)}
}

func BoolConst(v bool) Tree[BoolSort] {
	return Tree[BoolSort]{pin(literal(v), solver.KindBool)}
}

func EmptySet() Tree[SetSort] {
	return SetOf()
}

func SetOf(xs ...int) Tree[SetSort] {
	return Tree[SetSort]{pin(literal(NewIntSet(xs...)), solver.KindIntSet)}
}

func Insert[S SetArg, A IntArg](s S, x A) Tree[SetSort] {
	return apply[SetSort](solver.OpInsert, mustSet(s), mustInt(x))
}

func Member[A IntArg, S SetArg](x A, s S) Tree[BoolSort] {
	return apply[BoolSort](solver.OpMember, mustInt(x), mustSet(s))
}

func Union[A, B SetArg](a A, b B) Tree[SetSort] {
	return apply[SetSort](solver.OpUnion, mustSet(a), mustSet(b))
}

func Intersect[A, B SetArg](a A, b B) Tree[SetSort] {
	return apply[SetSort](solver.OpIntersect, mustSet(a), mustSet(b))
}

func Difference[A, B SetArg](a A, b B) Tree[SetSort] {
	return apply[SetSort](solver.OpDifference, mustSet(a), mustSet(b))
}

func Subset[A, B SetArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpSubset, mustSet(a), mustSet(b))
}

func SetEq[A, B SetArg](a A, b B) Tree[BoolSort] {
	return apply[BoolSort](solver.OpEq, mustSet(a), mustSet(b))
}

func nodes[S Sort](ts []Tree[S]) []*node {
	ns := make([]*node, len(ts))
	for i, t := range ts {
		ns[i] = t.n
	}
	return ns
}
