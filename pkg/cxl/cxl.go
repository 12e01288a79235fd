// Package cxl loads CmapTools CXL exports into concept map graphs.
package cxl

import "encoding/xml"

// Document is the subset of the CXL schema the loader reads
type Document struct {
	XMLName xml.Name `xml:"cmap"`
	Map     MapXML   `xml:"map"`
}

// MapXML holds the lists of a concept map
type MapXML struct {
	Concepts       []ConceptXML           `xml:"concept-list>concept"`
	LinkingPhrases []LinkingPhraseXML     `xml:"linking-phrase-list>linking-phrase"`
	Connections    []ConnectionXML        `xml:"connection-list>connection"`
	Appearances    []ConceptAppearanceXML `xml:"concept-appearance-list>concept-appearance"`
}

// ConceptXML represents a concept node
type ConceptXML struct {
	ID           string `xml:"id,attr"`
	Label        string `xml:"label,attr"`
	ParentID     string `xml:"parent-id,attr"`
	ShortComment string `xml:"short-comment,attr"`
	LongComment  string `xml:"long-comment,attr"`
}

// LinkingPhraseXML represents the label between two concepts
type LinkingPhraseXML struct {
	ID    string `xml:"id,attr"`
	Label string `xml:"label,attr"`
}

// ConnectionXML joins a concept or linking phrase to another
type ConnectionXML struct {
	ID     string `xml:"id,attr"`
	FromID string `xml:"from-id,attr"`
	ToID   string `xml:"to-id,attr"`
}

// ConceptAppearanceXML carries the visual attributes used for classification
type ConceptAppearanceXML struct {
	ID              string `xml:"id,attr"`
	BackgroundColor string `xml:"background-color,attr"`
	BorderColor     string `xml:"border-color,attr"`
	BorderShape     string `xml:"border-shape,attr"`
}
