package dsl

import "slava0135/zdsl/solver"

// Sort is the static sort of a Tree. The set of sorts is closed.
type Sort interface {
	// Kind is the solver kind of the sort, KindInvalid for BottomSort.
	Kind() solver.Kind
	element() *sortElement
}

type (
	BoolSort struct{}
	IntSort  struct{}
	SetSort  struct{}
	// BottomSort is below every other sort: a Tree[BottomSort] may be used
	// wherever any tree is expected.
	BottomSort struct{}
)

func (BoolSort) Kind() solver.Kind   { return solver.KindBool }
func (IntSort) Kind() solver.Kind    { return solver.KindInt }
func (SetSort) Kind() solver.Kind    { return solver.KindIntSet }
func (BottomSort) Kind() solver.Kind { return solver.KindInvalid }

func (BoolSort) element() *sortElement   { return &boolElement }
func (IntSort) element() *sortElement    { return &intElement }
func (SetSort) element() *sortElement    { return &setElement }
func (BottomSort) element() *sortElement { return &bottomElement }

type sortElement struct {
	name   string
	kind   solver.Kind
	uppers []*sortElement
}

var (
	anyElement = sortElement{name: "Any"}

	boolElement = sortElement{name: "Bool", kind: solver.KindBool}
	intElement  = sortElement{name: "Int", kind: solver.KindInt}
	setElement  = sortElement{name: "Set[Int]", kind: solver.KindIntSet}

	bottomElement = sortElement{name: "Bottom"}
)

func init() {
	boolElement.uppers = append(boolElement.uppers, &anyElement)
	intElement.uppers = append(intElement.uppers, &anyElement)
	setElement.uppers = append(setElement.uppers, &anyElement)

	bottomElement.uppers = append(bottomElement.uppers, &boolElement, &intElement, &setElement)
}

func (e *sortElement) isSubsortOf(other *sortElement) bool {
	queue := []*sortElement{e}
	for len(queue) > 0 {
		next := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if next == other {
			return true
		}
		queue = append(queue, next.uppers...)
	}
	return false
}

// elementOf maps a solver kind to its lattice element. KindInvalid marks a
// literal whose sort is still pending, which is the bottom of the lattice.
func elementOf(k solver.Kind) *sortElement {
	switch k {
	case solver.KindBool:
		return &boolElement
	case solver.KindInt:
		return &intElement
	case solver.KindIntSet:
		return &setElement
	default:
		return &bottomElement
	}
}
