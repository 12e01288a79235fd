package nodetype

// Defaults returns the node types used when the configuration defines none.
// They follow the CDISC 360 CMAP styling conventions.
func Defaults() []NodeType {
	return []NodeType{
		{
			Name:            RootConcept,
			Label:           "Observation Concept",
			Color:           "#FF0000",
			TargetLinkRoles: []string{"has"},
			BackgroundColor: "255,255,0,255",
			BorderColor:     "0,0,0,255",
			BorderShape:     "oval",
		},
		{
			Name:            DataElement,
			Label:           "Data Element Concept",
			Color:           "#00FF00",
			SourceLinkRoles: []string{"has"},
			TargetLinkRoles: []string{"value", "has value"},
			BackgroundColor: "204,255,204,255",
			BorderColor:     "0,0,0,255",
		},
		{
			Name:            ConceptualDomain,
			Label:           "Conceptual Domain",
			Color:           "#0000FF",
			SourceLinkRoles: []string{"value", "has value"},
			BackgroundColor: "237,244,246,255",
			BorderColor:     "0,0,0,255",
			BorderShape:     "rounded-rectangle",
		},
		{
			Name:  "concept",
			Label: "Concept",
			Color: "#C0C0C0",
		},
	}
}
