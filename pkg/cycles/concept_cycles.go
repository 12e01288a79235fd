// Package cycles finds circular relationships in a concept map. A BC map is
// expected to be a tree below its root, so any cycle is reported.
package cycles

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/graph"
	"github.com/ritzau/cmap-bc/pkg/model"
)

// ConceptCycle is a set of concepts that reach each other
type ConceptCycle struct {
	Vertices []*model.Vertex
}

// IDs returns the vertex ids of the cycle
func (c ConceptCycle) IDs() []string {
	ids := make([]string, len(c.Vertices))
	for i, v := range c.Vertices {
		ids[i] = v.ID
	}
	return ids
}

func (c ConceptCycle) String() string {
	labels := make([]string, len(c.Vertices))
	for i, v := range c.Vertices {
		labels[i] = v.Label
	}
	return strings.Join(labels, " -> ")
}

// FindConceptCycles returns every cycle in the concept graph, self loops
// first, then components in loader order of their first vertex
func FindConceptCycles(cg *graph.ConceptGraph) []ConceptCycle {
	cycles := make([]ConceptCycle, 0)
	for _, v := range cg.SelfLoops() {
		cycles = append(cycles, ConceptCycle{Vertices: []*model.Vertex{v}})
	}

	components := stronglyConnected(cg)
	slices.SortFunc(components, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })
	for _, scc := range components {
		vertices := make([]*model.Vertex, 0, len(scc))
		for _, id := range scc {
			if v := cg.VertexByID(id); v != nil {
				vertices = append(vertices, v)
			}
		}
		cycles = append(cycles, ConceptCycle{Vertices: vertices})
	}
	return cycles
}
