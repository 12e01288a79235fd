package cxl

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/logging"
	"github.com/ritzau/cmap-bc/pkg/model"
	"github.com/ritzau/cmap-bc/pkg/nodetype"
)

// ErrBadConnection is returned when a connection references an unknown id
var ErrBadConnection = errors.New("bad connection")

// Comment keys read from a concept's long comment
const (
	KeyRole      = "role"
	KeyMandatory = "mandatory"
)

// Parser turns CXL documents into concept map graphs
type Parser struct {
	catalog *nodetype.Catalog
	log     *logging.Logger
}

// NewParser creates a parser that classifies concepts with the catalog
func NewParser(catalog *nodetype.Catalog) *Parser {
	return &Parser{
		catalog: catalog,
		log:     logging.New("cxl"),
	}
}

// ParseFile reads and parses a CXL file
func (p *Parser) ParseFile(path string) (*model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CXL file: %w", err)
	}
	g, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse builds a graph from CXL data. Concepts become vertices in document
// order; linking phrases are folded into the relationship of the edges they
// join.
func (p *Parser) Parse(data []byte) (*model.Graph, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	appearances := make(map[string]nodetype.Appearance, len(doc.Map.Appearances))
	for _, a := range doc.Map.Appearances {
		appearances[a.ID] = nodetype.Appearance{
			BackgroundColor: a.BackgroundColor,
			BorderColor:     a.BorderColor,
			BorderShape:     a.BorderShape,
		}
	}

	graph := model.NewGraph()

	// 1. Create vertices
	for _, c := range doc.Map.Concepts {
		v, err := p.vertex(c, appearances[c.ID])
		if err != nil {
			return nil, err
		}
		if err := graph.AddVertex(v); err != nil {
			return nil, err
		}
	}

	// 2. Create edges
	if err := p.connect(graph, doc.Map); err != nil {
		return nil, err
	}

	p.log.Debug("loaded concept map", "vertices", graph.Len(), "edges", graph.EdgeCount())
	return graph, nil
}

func (p *Parser) vertex(c ConceptXML, a nodetype.Appearance) (*model.Vertex, error) {
	ct, err := nodetype.Resolve(p.catalog, c.ID, a)
	if err != nil {
		return nil, fmt.Errorf("%w (label %q)", err, c.Label)
	}

	v := model.NewVertex(c.ID, c.Label, ct.Type(), ct.Color())
	v.IsRoot = ct.IsRootNode()
	v.ParentID = c.ParentID
	v.Definition = strings.TrimSpace(c.ShortComment)

	attrs := ParseComment(c.LongComment)
	v.Role = attrs[KeyRole]
	if raw, ok := attrs[KeyMandatory]; ok {
		if m, ok := parseMandatory(raw); ok {
			v.Mandatory = &m
		} else {
			p.log.Warn("ignoring mandatory flag", "vertex", c.ID, "value", raw)
		}
	}

	p.log.Trace("parsed concept", "vertex", c.ID, "type", v.Type, "role", v.Role)
	return v, nil
}

// connect adds one edge per concept -> phrase -> concept path, plus the
// direct concept -> concept connections with an empty relationship.
func (p *Parser) connect(g *model.Graph, m MapXML) error {
	phrases := make(map[string]string, len(m.LinkingPhrases))
	for _, lp := range m.LinkingPhrases {
		phrases[lp.ID] = lp.Label
	}

	isConcept := func(id string) bool {
		_, ok := g.Vertex(id)
		return ok
	}

	// Concepts leading into each phrase, in document order
	incoming := make(map[string][]string)
	for _, c := range m.Connections {
		if _, ok := phrases[c.ToID]; ok && isConcept(c.FromID) {
			incoming[c.ToID] = append(incoming[c.ToID], c.FromID)
		}
	}

	for _, c := range m.Connections {
		_, fromPhrase := phrases[c.FromID]
		_, toPhrase := phrases[c.ToID]

		switch {
		case !fromPhrase && !isConcept(c.FromID):
			return fmt.Errorf("%w %s: unknown from-id %s", ErrBadConnection, c.ID, c.FromID)
		case !toPhrase && !isConcept(c.ToID):
			return fmt.Errorf("%w %s: unknown to-id %s", ErrBadConnection, c.ID, c.ToID)
		case fromPhrase && toPhrase:
			p.log.Warn("ignoring phrase to phrase connection", "connection", c.ID)
		case fromPhrase:
			for _, from := range incoming[c.FromID] {
				if err := g.Connect(from, c.ToID, phrases[c.FromID]); err != nil {
					return err
				}
			}
		case !toPhrase:
			if err := g.Connect(c.FromID, c.ToID, ""); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseComment reads "key: value" lines from a concept comment. Keys are
// lower-cased; lines without a colon are ignored.
func ParseComment(comment string) map[string]string {
	attrs := make(map[string]string)
	for _, line := range strings.Split(comment, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs
}

func parseMandatory(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y":
		return true, true
	case "no", "false", "n":
		return false, true
	}
	return false, false
}
