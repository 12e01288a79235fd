package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVertex is returned when a vertex id is added twice
	ErrDuplicateVertex = errors.New("duplicate vertex")
	// ErrUnknownVertex is returned when an edge references a vertex not in the graph
	ErrUnknownVertex = errors.New("unknown vertex")
	// ErrNoRoot is returned when no vertex is flagged as the root concept
	ErrNoRoot = errors.New("no root concept")
	// ErrMultipleRoots is returned when more than one vertex is flagged as root
	ErrMultipleRoots = errors.New("multiple root concepts")
)

// Graph is the concept map graph: an arena of vertices indexed by id.
// Vertices keep the order in which the loader added them so that every
// traversal is deterministic.
type Graph struct {
	vertices map[string]*Vertex
	order    []string
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[string]*Vertex),
		order:    make([]string, 0),
	}
}

// AddVertex adds a vertex to the graph.
func (g *Graph) AddVertex(v *Vertex) error {
	if _, exists := g.vertices[v.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVertex, v.ID)
	}
	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)
	return nil
}

// Vertex returns the vertex with the given id
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Vertices returns all vertices in loader order
func (g *Graph) Vertices() []*Vertex {
	result := make([]*Vertex, 0, len(g.order))
	for _, id := range g.order {
		result = append(result, g.vertices[id])
	}
	return result
}

// Len returns the number of vertices
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of directed edges
func (g *Graph) EdgeCount() int {
	count := 0
	for _, v := range g.vertices {
		count += len(v.Target)
	}
	return count
}

// Connect adds a directed edge from -> to labelled with relationship.
// Both vertices must already be in the graph.
func (g *Graph) Connect(fromID, toID, relationship string) error {
	from, ok := g.vertices[fromID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, fromID)
	}
	to, ok := g.vertices[toID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, toID)
	}

	from.AddTarget(to, relationship)
	to.AddSource(from, relationship)
	return nil
}

// ResolvedLink is an edge endpoint resolved to its vertex
type ResolvedLink struct {
	Vertex       *Vertex
	Relationship string
}

// Targets resolves the target edges of v in edge-list order
func (g *Graph) Targets(v *Vertex) []ResolvedLink {
	return g.resolve(v.Target)
}

// Sources resolves the source edges of v in edge-list order
func (g *Graph) Sources(v *Vertex) []ResolvedLink {
	return g.resolve(v.Source)
}

func (g *Graph) resolve(links []Link) []ResolvedLink {
	result := make([]ResolvedLink, 0, len(links))
	for _, l := range links {
		peer, ok := g.vertices[l.VertexID]
		if !ok {
			// Links are only created through Connect, so this means the
			// vertex was built outside the graph.
			continue
		}
		result = append(result, ResolvedLink{Vertex: peer, Relationship: l.Relationship})
	}
	return result
}

// Root returns the single root concept vertex
func (g *Graph) Root() (*Vertex, error) {
	var root *Vertex
	for _, id := range g.order {
		v := g.vertices[id]
		if !v.IsRoot {
			continue
		}
		if root != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrMultipleRoots, root.ID, v.ID)
		}
		root = v
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// Snapshot is a read-only view of the graph for export and visualization
type Snapshot struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Node represents a vertex in a snapshot.
type Node struct {
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	Type     string                 `json:"type"`             // node type label, e.g. "Conceptual Domain"
	Parent   string                 `json:"parent,omitempty"` // ID of the parent node (for bundles)
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Edge represents a directed relationship between two nodes.
type Edge struct {
	Source   string                 `json:"source"`
	Target   string                 `json:"target"`
	Type     string                 `json:"type"` // relationship label, e.g. "has value"
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Snapshot builds the export view. Nodes follow loader order and edges
// follow each vertex's target list.
func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		Nodes: make([]*Node, 0, len(g.order)),
		Edges: make([]*Edge, 0),
	}

	for _, v := range g.Vertices() {
		node := &Node{
			ID:     v.ID,
			Label:  v.Label,
			Type:   v.Type,
			Parent: v.ParentID,
			Metadata: map[string]interface{}{
				"color": v.Color,
			},
		}
		if v.IsRoot {
			node.Metadata["root"] = true
		}
		if v.Role != "" {
			node.Metadata["role"] = v.Role
		}
		if v.CTSubset != nil {
			node.Metadata["subset"] = v.CTSubset.ConceptCode
		}
		s.Nodes = append(s.Nodes, node)
	}

	for _, v := range g.Vertices() {
		for _, t := range v.Target {
			s.Edges = append(s.Edges, &Edge{
				Source: v.ID,
				Target: t.VertexID,
				Type:   t.Relationship,
			})
		}
	}

	return s
}
