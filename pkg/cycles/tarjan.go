package cycles

import (
	"slices"

	"github.com/ritzau/cmap-bc/pkg/graph"
)

// visit is the Tarjan bookkeeping of one node
type visit struct {
	index   int
	lowLink int
	onStack bool
}

// componentFinder finds strongly connected components with Tarjan's
// algorithm. ConceptGraph hands out node and successor ids in ascending
// order, so the result is stable across runs.
type componentFinder struct {
	cg         *graph.ConceptGraph
	visits     map[int64]*visit
	stack      []int64
	next       int
	components [][]int64
}

// stronglyConnected returns the components of cg with more than one node.
// Each component is sorted by node id.
func stronglyConnected(cg *graph.ConceptGraph) [][]int64 {
	f := &componentFinder{
		cg:     cg,
		visits: make(map[int64]*visit, cg.Len()),
	}
	for _, id := range cg.NodeIDs() {
		if f.visits[id] == nil {
			f.connect(id)
		}
	}
	return f.components
}

func (f *componentFinder) connect(id int64) *visit {
	v := &visit{index: f.next, lowLink: f.next, onStack: true}
	f.visits[id] = v
	f.next++
	f.stack = append(f.stack, id)

	for _, succ := range f.cg.SuccessorIDs(id) {
		switch sv := f.visits[succ]; {
		case sv == nil:
			v.lowLink = min(v.lowLink, f.connect(succ).lowLink)
		case sv.onStack:
			v.lowLink = min(v.lowLink, sv.index)
		}
	}

	if v.lowLink != v.index {
		return v
	}

	// id is the root of a component
	var component []int64
	for {
		top := f.stack[len(f.stack)-1]
		f.stack = f.stack[:len(f.stack)-1]
		f.visits[top].onStack = false
		component = append(component, top)
		if top == id {
			break
		}
	}
	if len(component) > 1 {
		slices.Sort(component)
		f.components = append(f.components, component)
	}
	return v
}
