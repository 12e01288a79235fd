package model

import "fmt"

// Link is a directed edge endpoint stored on a vertex. Edges reference their
// peer by id; the graph resolves them at traversal time.
type Link struct {
	VertexID     string `json:"vertexId"`
	Relationship string `json:"relationship"`
}

// Vertex is a concept node in the concept map graph
type Vertex struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Type       string `json:"type"`  // resolved node type label, e.g. "Data Element Concept"
	Color      string `json:"color"` // node type color used by the graph export
	ParentID   string `json:"parentId,omitempty"`
	Definition string `json:"definition,omitempty"`
	IsRoot     bool   `json:"isRoot"`

	// Set on data element concept nodes only
	Role      string `json:"role,omitempty"`
	Mandatory *bool  `json:"mandatory,omitempty"`

	// Set on enumerated conceptual domain nodes only
	CTSubset *Subset `json:"ctSubset,omitempty"`

	Source []Link `json:"source"`
	Target []Link `json:"target"`
}

// NewVertex creates a vertex without edges
func NewVertex(id, label, nodeType, color string) *Vertex {
	return &Vertex{
		ID:     id,
		Label:  label,
		Type:   nodeType,
		Color:  color,
		Source: make([]Link, 0),
		Target: make([]Link, 0),
	}
}

// AddSource records node as a source of this vertex.
// Passing a nil vertex is a programming error and panics.
func (v *Vertex) AddSource(node *Vertex, relationship string) {
	if node == nil {
		panic(fmt.Sprintf("model: nil source vertex added to vertex %s", v.ID))
	}
	v.Source = append(v.Source, Link{VertexID: node.ID, Relationship: relationship})
}

// AddTarget records node as a target of this vertex.
// Passing a nil vertex is a programming error and panics.
func (v *Vertex) AddTarget(node *Vertex, relationship string) {
	if node == nil {
		panic(fmt.Sprintf("model: nil target vertex added to vertex %s", v.ID))
	}
	v.Target = append(v.Target, Link{VertexID: node.ID, Relationship: relationship})
}

// SetCTSubset attaches the controlled terminology subset of a conceptual domain
func (v *Vertex) SetCTSubset(s *Subset) {
	v.CTSubset = s
}
