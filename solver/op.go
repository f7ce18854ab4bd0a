package solver

import "fmt"

type Op int

const (
	OpInvalid Op = iota

	OpNot
	OpAnd
	OpOr
	OpXor
	OpImplies
	OpIff
	OpIte

	OpEq
	OpDistinct

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpLT
	OpLE
	OpGT
	OpGE

	OpMember
	OpInsert
	OpUnion
	OpIntersect
	OpDifference
	OpSubset
)

var opNames = map[Op]string{
	OpNot:        "not",
	OpAnd:        "and",
	OpOr:         "or",
	OpXor:        "xor",
	OpImplies:    "=>",
	OpIff:        "iff",
	OpIte:        "ite",
	OpEq:         "=",
	OpDistinct:   "distinct",
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "div",
	OpMod:        "mod",
	OpNeg:        "neg",
	OpLT:         "<",
	OpLE:         "<=",
	OpGT:         ">",
	OpGE:         ">=",
	OpMember:     "member",
	OpInsert:     "insert",
	OpUnion:      "union",
	OpIntersect:  "intersect",
	OpDifference: "difference",
	OpSubset:     "subset",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// ResultKind checks the argument kinds of op and returns the kind of the
// result.
func ResultKind(op Op, args ...Kind) (Kind, error) {
	bad := func() (Kind, error) {
		return KindInvalid, fmt.Errorf("%s%v: %w", op, args, ErrKind)
	}
	all := func(k Kind, min int) bool {
		if len(args) < min {
			return false
		}
		for _, a := range args {
			if a != k {
				return false
			}
		}
		return true
	}
	switch op {
	case OpNot:
		if len(args) == 1 && all(KindBool, 1) {
			return KindBool, nil
		}
	case OpAnd, OpOr:
		if all(KindBool, 1) {
			return KindBool, nil
		}
	case OpXor, OpImplies, OpIff:
		if len(args) == 2 && all(KindBool, 2) {
			return KindBool, nil
		}
	case OpIte:
		if len(args) == 3 && args[0] == KindBool && args[1] == args[2] && args[1] != KindInvalid {
			return args[1], nil
		}
	case OpEq:
		if len(args) == 2 && args[0] == args[1] && args[0] != KindInvalid {
			return KindBool, nil
		}
	case OpDistinct:
		if all(KindInt, 1) {
			return KindBool, nil
		}
	case OpAdd, OpMul:
		if all(KindInt, 1) {
			return KindInt, nil
		}
	case OpSub, OpDiv, OpMod:
		if len(args) == 2 && all(KindInt, 2) {
			return KindInt, nil
		}
	case OpNeg:
		if len(args) == 1 && all(KindInt, 1) {
			return KindInt, nil
		}
	case OpLT, OpLE, OpGT, OpGE:
		if len(args) == 2 && all(KindInt, 2) {
			return KindBool, nil
		}
	case OpMember:
		if len(args) == 2 && args[0] == KindInt && args[1] == KindIntSet {
			return KindBool, nil
		}
	case OpInsert:
		if len(args) == 2 && args[0] == KindIntSet && args[1] == KindInt {
			return KindIntSet, nil
		}
	case OpUnion, OpIntersect, OpDifference:
		if len(args) == 2 && all(KindIntSet, 2) {
			return KindIntSet, nil
		}
	case OpSubset:
		if len(args) == 2 && all(KindIntSet, 2) {
			return KindBool, nil
		}
	default:
		return KindInvalid, fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	return bad()
}

// CheckArgs is the argument check every backend runs before Apply: the
// handles must belong to the session and fit the operator.
func CheckArgs(owner uint64, op Op, args []Handle) (Kind, error) {
	kinds := make([]Kind, len(args))
	for i, a := range args {
		if a.Owner() != owner {
			return KindInvalid, fmt.Errorf("%s argument %d: %w", op, i, ErrForeignHandle)
		}
		kinds[i] = a.Kind()
	}
	return ResultKind(op, kinds...)
}
