package nodetype

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAppearance is returned when no node type matches a node's appearance
	ErrUnknownAppearance = errors.New("no node type matches appearance")
	// ErrUnknownNodeType is returned when a node type name is not configured
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrInvalidCatalog is returned for inconsistent node type configuration
	ErrInvalidCatalog = errors.New("invalid node type catalog")
)

// Catalog is the immutable set of configured node types
type Catalog struct {
	types        []NodeType
	byName       map[string]NodeType
	byAppearance map[Appearance]NodeType
}

// NewCatalog validates the node types and builds the lookup tables
func NewCatalog(types []NodeType) (*Catalog, error) {
	c := &Catalog{
		types:        make([]NodeType, 0, len(types)),
		byName:       make(map[string]NodeType),
		byAppearance: make(map[Appearance]NodeType),
	}

	for i, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: node type %d has no name", ErrInvalidCatalog, i)
		}
		if t.Label == "" {
			t.Label = t.Name
		}
		if t.Color == "" {
			t.Color = DefaultColor
		}
		if _, exists := c.byName[t.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate node type name %q", ErrInvalidCatalog, t.Name)
		}
		key := t.Appearance().key()
		if other, exists := c.byAppearance[key]; exists {
			return nil, fmt.Errorf("%w: node types %q and %q share appearance %+v",
				ErrInvalidCatalog, other.Name, t.Name, key)
		}

		c.types = append(c.types, t)
		c.byName[t.Name] = t
		c.byAppearance[key] = t
	}

	return c, nil
}

// Types returns the node types in configuration order
func (c *Catalog) Types() []NodeType {
	result := make([]NodeType, len(c.types))
	copy(result, c.types)
	return result
}

// ByName looks up a node type by name
func (c *Catalog) ByName(name string) (NodeType, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// LabelOf returns the label of the named node type
func (c *Catalog) LabelOf(name string) (string, error) {
	t, ok := c.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNodeType, name)
	}
	return t.Label, nil
}

// Labels returns the name -> label lookup
func (c *Catalog) Labels() map[string]string {
	labels := make(map[string]string, len(c.types))
	for _, t := range c.types {
		labels[t.Name] = t.Label
	}
	return labels
}

// Classify returns the node type matching the appearance
func (c *Catalog) Classify(a Appearance) (NodeType, error) {
	t, ok := c.byAppearance[a.key()]
	if !ok {
		return NodeType{}, fmt.Errorf("%w: background-color=%q border-color=%q border-shape=%q",
			ErrUnknownAppearance, a.BackgroundColor, a.BorderColor, a.BorderShape)
	}
	return t, nil
}
