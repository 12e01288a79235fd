// Package export writes concept map graphs in formats graph viewers read.
// GraphML opens in yEd; DOT renders with Graphviz.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritzau/cmap-bc/pkg/model"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// Node and edge attribute keys, in the order yEd's property mapper lists them
var graphMLKeys = []graphMLKey{
	{ID: "d0", For: "node", AttrName: "id", AttrType: "string"},
	{ID: "d1", For: "node", AttrName: "name", AttrType: "string"},
	{ID: "d2", For: "node", AttrName: "type", AttrType: "string"},
	{ID: "d3", For: "node", AttrName: "description", AttrType: "string"},
	{ID: "d4", For: "node", AttrName: "color", AttrType: "string"},
	{ID: "d5", For: "edge", AttrName: "description", AttrType: "string"},
}

// WriteGraphML writes the graph as GraphML. Parallel relationships between
// the same two concepts become one edge with a merged description.
func WriteGraphML(w io.Writer, g *model.Graph) error {
	snap := g.Snapshot()

	doc := graphMLDoc{
		XMLNS: graphMLNamespace,
		Keys:  graphMLKeys,
		Graph: graphMLGraph{EdgeDefault: "directed"},
	}

	for _, n := range snap.Nodes {
		color, _ := n.Metadata["color"].(string)
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{
			ID: n.ID,
			Data: []graphMLData{
				{Key: "d0", Value: n.ID},
				{Key: "d1", Value: n.Label},
				{Key: "d2", Value: n.Type},
				{Key: "d3", Value: n.Label},
				{Key: "d4", Value: color},
			},
		})
	}

	for _, e := range mergeEdges(snap.Edges) {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			Source: e.Source,
			Target: e.Target,
			Data:   []graphMLData{{Key: "d5", Value: e.Type}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding GraphML: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// SaveGraphML writes the GraphML export to path
func SaveGraphML(path string, g *model.Graph) error {
	return saveFile(path, func(w io.Writer) error { return WriteGraphML(w, g) })
}

// mergeEdges keeps the first occurrence of every source/target pair and
// joins the relationship labels of later ones into it
func mergeEdges(edges []*model.Edge) []*model.Edge {
	type pair struct{ source, target string }

	index := make(map[pair]int)
	merged := make([]*model.Edge, 0, len(edges))
	for _, e := range edges {
		p := pair{e.Source, e.Target}
		i, ok := index[p]
		if !ok {
			index[p] = len(merged)
			merged = append(merged, &model.Edge{Source: e.Source, Target: e.Target, Type: e.Type})
			continue
		}
		if e.Type == "" {
			continue
		}
		if merged[i].Type == "" {
			merged[i].Type = e.Type
		} else if !strings.Contains(merged[i].Type, e.Type) {
			merged[i].Type += ", " + e.Type
		}
	}
	return merged
}

func saveFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
