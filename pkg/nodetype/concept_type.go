package nodetype

import "fmt"

// ConceptType binds a concept id to its node type
type ConceptType struct {
	ID       string
	NodeType NodeType
}

// Resolve classifies the concept with the given id from its appearance.
// A concept no node type matches cannot be processed and is an error.
func Resolve(c *Catalog, id string, a Appearance) (ConceptType, error) {
	t, err := c.Classify(a)
	if err != nil {
		return ConceptType{}, fmt.Errorf("concept %s: %w", id, err)
	}
	return ConceptType{ID: id, NodeType: t}, nil
}

// Type returns the node type label
func (ct ConceptType) Type() string {
	return ct.NodeType.Label
}

// Color returns the node type color
func (ct ConceptType) Color() string {
	return ct.NodeType.Color
}

// IsRootNode reports whether the concept is the root concept of the map
func (ct ConceptType) IsRootNode() bool {
	return ct.NodeType.IsRootConcept()
}
