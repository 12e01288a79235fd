// Package nodetype classifies concept map nodes. In CMAPs node types are
// identified by visual characteristics such as the background color, border
// color, or border shape; the types themselves come from configuration.
package nodetype

import "strings"

// Reserved node type names
const (
	RootConcept      = "root_concept"
	DataElement      = "dec"
	ConceptualDomain = "conceptual_domain"
)

// DefaultColor is the node color used when the configuration leaves it empty
const DefaultColor = "#0000FF"

// NodeType is a classification record loaded from configuration
type NodeType struct {
	Name            string   `koanf:"name" json:"name"`
	Label           string   `koanf:"label" json:"label"`
	Color           string   `koanf:"color" json:"color"`
	SourceLinkRoles []string `koanf:"source_links" json:"sourceLinks,omitempty"`
	TargetLinkRoles []string `koanf:"target_links" json:"targetLinks,omitempty"`
	BackgroundColor string   `koanf:"background_color" json:"backgroundColor,omitempty"`
	BorderColor     string   `koanf:"border_color" json:"borderColor,omitempty"`
	BorderShape     string   `koanf:"border_shape" json:"borderShape,omitempty"`
}

// IsRootConcept returns true when the node type is the root concept, the
// observation concept of a BC.
func (t NodeType) IsRootConcept() bool {
	return t.Name == RootConcept
}

// Appearance returns the classification key of the node type
func (t NodeType) Appearance() Appearance {
	return Appearance{
		BackgroundColor: t.BackgroundColor,
		BorderColor:     t.BorderColor,
		BorderShape:     t.BorderShape,
	}
}

// Appearance holds the visual attributes of a concept in the map.
// Empty fields mean the attribute is absent.
type Appearance struct {
	BackgroundColor string
	BorderColor     string
	BorderShape     string
}

// key normalizes the appearance for comparison. CmapTools writes colors as
// "r,g,b,a" and is not consistent about spacing or case.
func (a Appearance) key() Appearance {
	return Appearance{
		BackgroundColor: normalize(a.BackgroundColor),
		BorderColor:     normalize(a.BorderColor),
		BorderShape:     normalize(a.BorderShape),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
