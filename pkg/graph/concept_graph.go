// Package graph mirrors a concept map in a gonum directed graph for the
// structural checks and the DOT export.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/ritzau/cmap-bc/pkg/model"
)

// ConceptNode is a concept map vertex in the gonum graph
type ConceptNode struct {
	id     int64
	Vertex *model.Vertex
}

// ID implements graph.Node
func (n ConceptNode) ID() int64 { return n.id }

// DOTID implements dot.Node
func (n ConceptNode) DOTID() string { return n.Vertex.ID }

// Attributes implements encoding.Attributer
func (n ConceptNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{
		{Key: "label", Value: n.Vertex.Label},
		{Key: "color", Value: n.Vertex.Color},
	}
	if n.Vertex.IsRoot {
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "doubleoctagon"})
	}
	return attrs
}

// RelationshipEdge joins two concepts. A simple graph keeps one edge per
// ordered pair, so parallel relationships are merged into one label.
type RelationshipEdge struct {
	F, T          ConceptNode
	Relationships []string
}

// From implements graph.Edge
func (e RelationshipEdge) From() graph.Node { return e.F }

// To implements graph.Edge
func (e RelationshipEdge) To() graph.Node { return e.T }

// ReversedEdge implements graph.Edge
func (e RelationshipEdge) ReversedEdge() graph.Edge {
	return RelationshipEdge{F: e.T, T: e.F, Relationships: e.Relationships}
}

// Label returns the merged relationship label
func (e RelationshipEdge) Label() string {
	return strings.Join(e.Relationships, ", ")
}

// Attributes implements encoding.Attributer
func (e RelationshipEdge) Attributes() []encoding.Attribute {
	if label := e.Label(); label != "" {
		return []encoding.Attribute{{Key: "label", Value: label}}
	}
	return nil
}

// ConceptGraph represents the concept map as a gonum directed graph.
// Node ids follow loader order.
type ConceptGraph struct {
	graph     *simple.DirectedGraph
	nodes     []ConceptNode
	ids       map[string]int64
	selfLoops []*model.Vertex
}

// Build creates the gonum view of a concept map graph
func Build(g *model.Graph) *ConceptGraph {
	cg := &ConceptGraph{
		graph: simple.NewDirectedGraph(),
		nodes: make([]ConceptNode, 0, g.Len()),
		ids:   make(map[string]int64, g.Len()),
	}

	for _, v := range g.Vertices() {
		n := ConceptNode{id: int64(len(cg.nodes)), Vertex: v}
		cg.nodes = append(cg.nodes, n)
		cg.ids[v.ID] = n.id
		cg.graph.AddNode(n)
	}

	for _, v := range g.Vertices() {
		for _, t := range g.Targets(v) {
			cg.addRelationship(v, t.Vertex, t.Relationship)
		}
	}

	return cg
}

func (cg *ConceptGraph) addRelationship(from, to *model.Vertex, relationship string) {
	if from.ID == to.ID {
		// gonum simple graphs reject self edges
		cg.selfLoops = append(cg.selfLoops, from)
		return
	}

	f, t := cg.nodes[cg.ids[from.ID]], cg.nodes[cg.ids[to.ID]]
	if existing := cg.graph.Edge(f.id, t.id); existing != nil {
		if relationship == "" {
			return
		}
		e := existing.(RelationshipEdge)
		e.Relationships = append(e.Relationships, relationship)
		cg.graph.SetEdge(e)
		return
	}

	var rels []string
	if relationship != "" {
		rels = []string{relationship}
	}
	cg.graph.SetEdge(RelationshipEdge{F: f, T: t, Relationships: rels})
}

// Graph returns the underlying directed graph
func (cg *ConceptGraph) Graph() *simple.DirectedGraph {
	return cg.graph
}

// Len returns the number of nodes
func (cg *ConceptGraph) Len() int {
	return len(cg.nodes)
}

// Node returns the node for a vertex id
func (cg *ConceptGraph) Node(vertexID string) (ConceptNode, bool) {
	id, ok := cg.ids[vertexID]
	if !ok {
		return ConceptNode{}, false
	}
	return cg.nodes[id], true
}

// VertexByID returns the vertex of a gonum node id
func (cg *ConceptGraph) VertexByID(id int64) *model.Vertex {
	if id < 0 || id >= int64(len(cg.nodes)) {
		return nil
	}
	return cg.nodes[id].Vertex
}

// NodeIDs returns all node ids in loader order
func (cg *ConceptGraph) NodeIDs() []int64 {
	ids := make([]int64, len(cg.nodes))
	for i, n := range cg.nodes {
		ids[i] = n.id
	}
	return ids
}

// SuccessorIDs returns the node ids reachable by one edge from id, in
// loader order
func (cg *ConceptGraph) SuccessorIDs(id int64) []int64 {
	var ids []int64
	it := cg.graph.From(id)
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SelfLoops returns the vertices with an edge to themselves
func (cg *ConceptGraph) SelfLoops() []*model.Vertex {
	return append([]*model.Vertex(nil), cg.selfLoops...)
}

// Unreachable returns the vertices that cannot be reached from the root by
// following edges, in loader order
func (cg *ConceptGraph) Unreachable(rootID string) ([]*model.Vertex, error) {
	root, ok := cg.Node(rootID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownVertex, rootID)
	}

	var bf traverse.BreadthFirst
	bf.Walk(cg.graph, root, nil)

	var result []*model.Vertex
	for _, n := range cg.nodes {
		if !bf.Visited(n) {
			result = append(result, n.Vertex)
		}
	}
	return result, nil
}
