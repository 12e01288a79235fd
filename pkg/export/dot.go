package export

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/ritzau/cmap-bc/pkg/graph"
	"github.com/ritzau/cmap-bc/pkg/model"
)

// WriteDOT writes the concept graph in Graphviz DOT format
func WriteDOT(w io.Writer, cg *graph.ConceptGraph, name string) error {
	data, err := dot.Marshal(cg.Graph(), name, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding DOT: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// SaveDOT builds the gonum view of g and writes it to path
func SaveDOT(path string, g *model.Graph, name string) error {
	cg := graph.Build(g)
	return saveFile(path, func(w io.Writer) error { return WriteDOT(w, cg, name) })
}
